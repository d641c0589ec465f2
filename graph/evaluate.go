package graph

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/glass/internal/filter"
)

// Evaluate renders the graph on the CPU with src as SourceGraphic.
//
// images binds the keys of image primitives to images. An image whose size
// differs from src is scaled to cover the source bounds while keeping its
// aspect ratio, centered, as SVG's preserveAspectRatio="xMidYMid slice".
func (g *Graph) Evaluate(src image.Image, images map[string]image.Image) (*image.NRGBA, error) {
	source := filter.FromImage(src)
	results := map[Ref]*filter.Image{
		SourceGraphic: source,
		SourceAlpha:   filter.ExtractAlpha(source),
	}

	var last *filter.Image
	for _, n := range g.nodes {
		out, err := n.apply(results, images, source.Width, source.Height)
		if err != nil {
			return nil, fmt.Errorf("graph %q: %s %q: %w", g.id, n.Kind, n.Result, err)
		}
		if n.Result != "" {
			results[n.Result] = out
		}
		last = out
	}
	return last.NRGBA(), nil
}

func (n Node) apply(results map[Ref]*filter.Image, images map[string]image.Image, w, h int) (*filter.Image, error) {
	in := results[n.In]
	in2 := results[n.In2]

	switch n.Kind {
	case KindImage:
		img, ok := images[n.Key]
		if !ok || img == nil {
			return nil, fmt.Errorf("%w %q", ErrMissingImage, n.Key)
		}
		return filter.FromImage(coverImage(img, w, h)), nil
	case KindColorMatrix:
		return filter.ApplyColorMatrix(in, n.Matrix), nil
	case KindComponentTransfer:
		return filter.ComponentTransfer(in, n.Funcs), nil
	case KindDisplacementMap:
		return filter.Displace(in, in2, n.Scale, n.XChannel, n.YChannel)
	case KindBlend:
		return filter.Blend(in, in2, n.Mode)
	case KindGaussianBlur:
		return filter.GaussianBlur(in, n.StdDevX, n.StdDevY), nil
	case KindComposite:
		return filter.Composite(in, in2, n.Op, n.K)
	case KindOffset:
		return filter.Offset(in, n.DX, n.DY), nil
	case KindFlood:
		return filter.Flood(w, h, n.Color), nil
	default:
		return nil, fmt.Errorf("graph: unsupported primitive %d", n.Kind)
	}
}

// coverImage returns img scaled to exactly w x h pixels, cropping the longer
// axis symmetrically. Images that already match are returned unchanged.
func coverImage(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	if b.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	}

	scale := max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	cw := min(b.Dx(), int(float64(w)/scale+0.5))
	ch := min(b.Dy(), int(float64(h)/scale+0.5))
	x0 := b.Min.X + (b.Dx()-cw)/2
	y0 := b.Min.Y + (b.Dy()-ch)/2

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, image.Rect(x0, y0, x0+cw, y0+ch), xdraw.Src, nil)
	return dst
}
