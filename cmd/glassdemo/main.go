// Command glassdemo renders a liquid glass panel over a generated backdrop
// and writes the composed image, the panel's SVG document and a few frames
// of the blob overlay.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/gogpu/glass"
	_ "github.com/gogpu/glass/gpu"
)

func main() {
	var (
		width   = flag.Int("width", 640, "canvas width")
		height  = flag.Int("height", 360, "canvas height")
		panelW  = flag.Float64("panel-width", 320, "panel width")
		panelH  = flag.Float64("panel-height", 96, "panel height")
		scale   = flag.Float64("scale", 70, "displacement scale")
		aberr   = flag.Float64("aberration", 2, "aberration intensity")
		light   = flag.Bool("light", false, "use the light palette")
		frames  = flag.Int("frames", 3, "blob overlay frames to write")
		outDir  = flag.String("out", ".", "output directory")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	glass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	mode := glass.ColorModeDark
	if *light {
		mode = glass.ColorModeLight
	}

	host := &demoHost{
		width:  *panelW,
		height: *panelH,
		overlay: &pngOverlay{
			dir:   *outDir,
			limit: *frames,
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	effect := glass.Mount(ctx, host,
		glass.WithDisplacementScale(*scale),
		glass.WithAberrationIntensity(*aberr),
		glass.WithColorMode(mode),
		glass.WithBlobOptions(glass.WithScheduler(manualScheduler{})),
	)
	defer effect.Close()

	canvas := drawBackdrop(*width, *height)
	at := image.Pt((*width-int(*panelW))/2, (*height-int(*panelH))/2)
	out := effect.Panel().RenderOnto(canvas, at, nil)

	pngPath := filepath.Join(*outDir, "glass.png")
	if err := out.SavePNG(pngPath); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Panel saved to %s (%dx%d)\n", pngPath, *width, *height)

	svgPath := filepath.Join(*outDir, "glass.svg")
	if err := writeSVG(effect.Panel(), svgPath); err != nil {
		log.Fatalf("Failed to write SVG: %v", err)
	}
	log.Printf("SVG saved to %s\n", svgPath)

	blobs := effect.Blobs()
	<-blobs.Ready()
	if blobs.Status() != glass.BlobRunning {
		log.Printf("Blob overlay %s, no frames written\n", blobs.Status())
		return
	}
	// Sweep the pointer across the panel while stepping frames.
	for i := 0; i < *frames; i++ {
		t := float64(i+1) / float64(*frames+1)
		effect.Dispatch(glass.PointerMove(t**panelW, *panelH/2))
		if err := blobs.Frame(); err != nil {
			log.Fatalf("Blob frame %d: %v", i, err)
		}
	}
	log.Printf("Wrote %d blob frames to %s\n", blobs.Frames(), *outDir)
}

func writeSVG(p *glass.Panel, path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := p.WriteSVG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// drawBackdrop paints diagonal color bands so refraction is visible.
func drawBackdrop(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			band := math.Mod(float64(x+y)/48, 2) < 1
			t := float64(y) / float64(h)
			c := glass.RGB(0.1+t*0.4, 0.2+t*0.3, 0.4+t*0.2)
			if band {
				c = glass.RGB(0.95, 0.75-t*0.3, 0.2)
			}
			img.Set(x, y, c.Color())
		}
	}
	return img
}

type demoHost struct {
	width, height float64
	overlay       glass.Overlay
}

func (h *demoHost) Measure() (float64, float64) { return h.width, h.height }
func (h *demoHost) Overlay() glass.Overlay      { return h.overlay }

// pngOverlay writes every presented frame to a numbered PNG.
type pngOverlay struct {
	dir     string
	limit   int
	opacity float64
	n       int
}

func (o *pngOverlay) Attach(width, height int) error {
	log.Printf("Blob overlay attached (%dx%d)\n", width, height)
	return nil
}

func (o *pngOverlay) Detach() {}

func (o *pngOverlay) Present(frame *glass.Pixmap) {
	if o.n >= o.limit {
		return
	}
	o.n++
	if o.opacity < 1 {
		fade(frame, o.opacity)
	}
	path := filepath.Join(o.dir, fmt.Sprintf("blob-%02d.png", o.n))
	if err := frame.SavePNG(path); err != nil {
		log.Printf("Failed to save %s: %v\n", path, err)
	}
}

func (o *pngOverlay) SetOpacity(opacity float64) { o.opacity = opacity }

// fade bakes the overlay opacity into the frame's alpha channel.
func fade(frame *glass.Pixmap, opacity float64) {
	data := frame.Data()
	for i := 3; i < len(data); i += 4 {
		data[i] = uint8(float64(data[i])*opacity + 0.5)
	}
}

// manualScheduler never fires; frames are stepped explicitly.
type manualScheduler struct{}

func (manualScheduler) Schedule(func()) func() { return func() {} }
