//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"fmt"
	"image"
	"syscall/js"

	"github.com/MeKo-Tech/wallpaint/internal/overlay"
	"github.com/MeKo-Tech/wallpaint/internal/session"
)

// The page owns exactly one editing session.
var current = session.New(nil)

// load(pixels Uint8ClampedArray, width, height) copies canvas RGBA data into
// a new session.
func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult(fmt.Errorf("load expects pixels, width, height"))
	}

	w, h := args[1].Int(), args[2].Int()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if n := js.CopyBytesToGo(img.Pix, args[0]); n != len(img.Pix) {
		return errorResult(fmt.Errorf("expected %d bytes of pixel data, got %d", len(img.Pix), n))
	}

	if err := current.Load(img); err != nil {
		return errorResult(err)
	}
	return status()
}

// pointer(kind, x, y) forwards a canvas mouse event: down, move, up, leave
// or dblclick.
func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult(fmt.Errorf("pointer expects an event kind"))
	}

	x, y := 0, 0
	if len(args) >= 3 {
		x, y = args[1].Int(), args[2].Int()
	}

	var err error
	switch kind := args[0].String(); kind {
	case "down":
		err = current.PointerDown(x, y)
	case "move":
		err = current.PointerMove(x, y)
	case "up":
		current.PointerUp()
	case "leave":
		current.PointerLeave()
	case "dblclick":
		_, err = current.DoubleClick(context.Background())
	default:
		err = fmt.Errorf("unknown pointer event %q", kind)
	}
	if err != nil {
		return errorResult(err)
	}
	return status()
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult(fmt.Errorf("setTool expects a tool name"))
	}
	t, err := session.ParseTool(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	current.SetTool(t)
	return status()
}

func setRadius(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult(fmt.Errorf("setRadius expects a radius"))
	}
	current.SetBrushRadius(args[0].Int())
	return status()
}

// apply(hex) repaints the selection, e.g. apply("#667EEA").
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult(fmt.Errorf("apply expects a colour"))
	}
	if err := current.Apply(context.Background(), args[0].String()); err != nil {
		return errorResult(err)
	}
	return status()
}

func clearSelection(this js.Value, args []js.Value) interface{} {
	if err := current.ClearSelection(); err != nil {
		return errorResult(err)
	}
	return status()
}

func revert(this js.Value, args []js.Value) interface{} {
	if err := current.RevertToOriginal(); err != nil {
		return errorResult(err)
	}
	return status()
}

func reset(this js.Value, args []js.Value) interface{} {
	if err := current.ResetImage(); err != nil {
		return errorResult(err)
	}
	return status()
}

// pixels() returns the current image as a Uint8ClampedArray for putImageData.
func pixels(this js.Value, args []js.Value) interface{} {
	if !current.Loaded() {
		return errorResult(session.ErrNoImage)
	}
	return toClamped(current.Current().Pix)
}

// overlayPixels(cx, cy) renders the selection tint and the open polygon with
// a rubber band to the cursor. Without a cursor no preview segment is drawn.
func overlayPixels(this js.Value, args []js.Value) interface{} {
	if !current.Loaded() {
		return errorResult(session.ErrNoImage)
	}

	var cursor *image.Point
	if len(args) >= 2 {
		p := image.Pt(args[0].Int(), args[1].Int())
		cursor = &p
	}

	img, err := overlay.Preview(current.Current(), current.Mask(), current.Polygon(), cursor)
	if err != nil {
		return errorResult(err)
	}
	return toClamped(img.Pix)
}

func toClamped(pix []byte) js.Value {
	arr := js.Global().Get("Uint8ClampedArray").New(len(pix))
	js.CopyBytesToJS(arr, pix)
	return arr
}

func status() interface{} {
	if !current.Loaded() {
		return map[string]interface{}{"loaded": false}
	}
	b := current.Current().Bounds()
	return map[string]interface{}{
		"loaded":   true,
		"width":    b.Dx(),
		"height":   b.Dy(),
		"tool":     current.Tool().String(),
		"radius":   current.BrushRadius(),
		"selected": current.Mask().Count(),
		"vertices": len(current.Polygon()),
		"drawing":  current.Drawing(),
	}
}

func errorResult(err error) interface{} {
	return map[string]interface{}{"error": err.Error()}
}

func main() {
	c := make(chan struct{})

	funcs := map[string]func(js.Value, []js.Value) interface{}{
		"wallpaintLoad":      load,
		"wallpaintPointer":   pointer,
		"wallpaintSetTool":   setTool,
		"wallpaintSetRadius": setRadius,
		"wallpaintApply":     apply,
		"wallpaintClear":     clearSelection,
		"wallpaintRevert":    revert,
		"wallpaintReset":     reset,
		"wallpaintPixels":    pixels,
		"wallpaintOverlay":   overlayPixels,
	}
	for name, fn := range funcs {
		js.Global().Set(name, js.FuncOf(fn))
	}

	fmt.Println("WallPaint WASM module loaded")
	<-c
}
