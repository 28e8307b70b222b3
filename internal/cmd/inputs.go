package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/wallpaint/internal/script"
	"github.com/MeKo-Tech/wallpaint/internal/worker"
)

// photoExts are the extensions picked up when a directory is given.
var photoExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// loadScript reads a script from path, or from stdin when path is "-".
func loadScript(path string, stdin io.Reader) (*script.Script, error) {
	if path == "-" {
		sc, err := script.Parse(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return sc, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	sc, err := script.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// collectInputs expands glob patterns and directories into a sorted,
// de-duplicated list of photo paths.
func collectInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			inputs = append(inputs, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				add(m)
				continue
			}

			entries, err := os.ReadDir(m)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() && isPhoto(e.Name()) {
					add(filepath.Join(m, e.Name()))
				}
			}
		}
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("no photos match %s", strings.Join(patterns, ", "))
	}
	slices.Sort(inputs)
	return inputs, nil
}

func isPhoto(name string) bool {
	return slices.Contains(photoExts, strings.ToLower(filepath.Ext(name)))
}

// buildTasks maps every input to outputDir/<name>.png. Two inputs that would
// write the same output are rejected.
func buildTasks(inputs []string, outputDir string) ([]worker.Task, error) {
	tasks := make([]worker.Task, 0, len(inputs))
	owner := make(map[string]string, len(inputs))

	for _, in := range inputs {
		name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out := filepath.Join(outputDir, name+".png")
		if prev, ok := owner[out]; ok {
			return nil, fmt.Errorf("%s and %s both write %s", prev, in, out)
		}
		owner[out] = in
		tasks = append(tasks, worker.Task{Input: in, Output: out})
	}

	return tasks, nil
}
