//go:build js && wasm

// Command hello-wasm clears the page's canvas every animation frame, cycling
// the color. Serve it next to wasm_exec.js and an index.html that contains
// <canvas id="canvas">.
package main

import (
	"log"
	"log/slog"
	"math"
	"syscall/js"

	"github.com/tinyrange/glwin/display"
	"github.com/tinyrange/glwin/web"
)

// WebGL2RenderingContext.COLOR_BUFFER_BIT
const colorBufferBit = 0x4000

func main() {
	inst := web.New()
	id, err := inst.CreateDisplay()
	if err != nil {
		log.Fatalf("create display: %v", err)
	}
	d, _ := inst.TryGetDisplay(id)
	slog.Info("display ready", "id", id, "size", d.Size())

	gl := d.Context()
	var frame js.Func
	frame = js.FuncOf(func(this js.Value, args []js.Value) any {
		var ms float64
		if len(args) > 0 {
			ms = args[0].Float()
		}
		if d.IsRedrawRequested() {
			draw(gl, d.Size(), ms/1000)
		}
		js.Global().Call("requestAnimationFrame", frame)
		return nil
	})
	js.Global().Call("requestAnimationFrame", frame)

	select {}
}

func draw(gl js.Value, size display.Size, t float64) {
	gl.Call("viewport", 0, 0, size.Width, size.Height)
	r := 0.5 + 0.5*math.Sin(t)
	g := 0.5 + 0.5*math.Sin(t+2*math.Pi/3)
	b := 0.5 + 0.5*math.Sin(t+4*math.Pi/3)
	gl.Call("clearColor", r, g, b, 1)
	gl.Call("clear", colorBufferBit)
}
