package main

import "github.com/MeKo-Tech/wallpaint/internal/cmd"

func main() {
	cmd.Execute()
}
