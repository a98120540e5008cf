//go:build !js

package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"
	"unsafe"

	"github.com/tinyrange/glwin/display"
	"github.com/tinyrange/glwin/internal/config"
	"github.com/tinyrange/glwin/internal/gl"
	"github.com/tinyrange/glwin/internal/scene"
	"github.com/tinyrange/glwin/native"
)

var markColor = [4]float32{1.0, 0.8, 0.2, 1.0}

// view is the demo state kept per open display.
type view struct {
	scene *scene.Scene
	gl    gl.OpenGL
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "path to a .toml or .yaml config file")
	displays := fs.Int("displays", 1, "number of windows to open")
	width := fs.Uint("width", 1280, "initial window width")
	height := fs.Uint("height", 960, "initial window height")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	screenshot := fs.String("screenshot", "", "write the first frame of the first window to this PNG and exit")
	writeConfig := fs.String("write-config", "", "write the effective config to this path and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Flags given explicitly win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "displays":
			cfg.Displays = *displays
		case "width":
			cfg.Width = uint32(*width)
		case "height":
			cfg.Height = uint32(*height)
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			log.Fatalf("write config: %v", err)
		}
		return
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	inst, err := native.New(
		native.WithTitle(cfg.Title),
		native.WithDefaultSize(cfg.Width, cfg.Height),
		native.WithFrameInterval(cfg.FrameInterval.Duration),
		native.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer inst.Close()

	var ids []native.ID
	views := make(map[native.ID]*view)
	for n := 0; n < cfg.Displays; n++ {
		id, err := inst.CreateDisplay()
		if err != nil {
			log.Fatalf("create display: %v", err)
		}
		ids = append(ids, id)
		views[id] = &view{scene: scene.New()}
	}

	first := ids[0]
	start := time.Now()
	frames := 0

	for inst.TryUpdate() {
		for _, id := range ids {
			d, ok := inst.TryGetDisplay(id)
			if !ok {
				delete(views, id)
				continue
			}
			v := views[id]
			d.Listen(v.scene)

			if !d.IsRedrawRequested() {
				continue
			}
			if err := d.MakeCurrent(); err != nil {
				log.Fatalf("make current %s: %v", id, err)
			}
			if v.gl == nil {
				if v.gl, err = gl.Load(d.ProcAddress); err != nil {
					log.Fatalf("load gl for %s: %v", id, err)
				}
				slog.Info("gl ready", "id", id,
					"vendor", v.gl.GetString(gl.Vendor),
					"version", v.gl.GetString(gl.Version),
					"scale", d.Scale())
			}

			draw(v.gl, v.scene, cfg.ClearColor)
			frames++

			if *screenshot != "" && id == first {
				if err := writeScreenshot(v.gl, d.Size(), *screenshot); err != nil {
					log.Fatalf("screenshot: %v", err)
				}
				slog.Info("screenshot written", "path", *screenshot)
				return
			}
		}
	}
	if err := inst.Err(); err != nil {
		log.Fatalf("run loop: %v", err)
	}

	slog.Info("all displays closed", "frames", frames, "elapsed", time.Since(start).Round(time.Millisecond))
}

// draw repaints the whole frame: the back buffer is undefined after a swap, so
// every redraw starts from a full clear.
func draw(g gl.OpenGL, s *scene.Scene, clear []float32) {
	size := s.Size()
	g.Viewport(0, 0, int32(size.Width), int32(size.Height))

	g.Disable(gl.ScissorTest)
	g.ClearColor(clear[0], clear[1], clear[2], clear[3])
	g.Clear(gl.ColorBufferBit)

	rects := s.MarkRects()
	if len(rects) > 0 {
		g.Enable(gl.ScissorTest)
		g.ClearColor(markColor[0], markColor[1], markColor[2], markColor[3])
		for _, r := range rects {
			g.Scissor(r.X, r.Y, r.Width, r.Height)
			g.Clear(gl.ColorBufferBit)
		}
		g.Disable(gl.ScissorTest)
	}
}

func writeScreenshot(g gl.OpenGL, size display.Size, path string) error {
	img, err := readFrame(g, size)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return nil
}

// readFrame reads the back buffer and flips it so row 0 is the top.
func readFrame(g gl.OpenGL, size display.Size) (*image.RGBA, error) {
	w, h := int(size.Width), int(size.Height)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty framebuffer %s", size)
	}
	g.Finish()

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	g.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UnsignedByte, unsafe.Pointer(&rgba.Pix[0]))

	flipped := image.NewRGBA(rgba.Rect)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : (y+1)*rgba.Stride]
		dst := (h - 1 - y) * flipped.Stride
		copy(flipped.Pix[dst:dst+flipped.Stride], src)
	}
	return flipped, nil
}
