package glass

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG writes the panel as a standalone SVG document: the filter and
// gradient definitions followed by the layer stack. The backdrop layer
// carries the filter and a CSS backdrop-filter for renderers that support
// it. The content slot is an empty group with class "glass-content".
func (p *Panel) WriteSVG(w io.Writer) error {
	st := p.state.Load()
	cfg := p.Config()
	l := layersFor(st, cfg)

	ew := &errWriter{w: w}
	s := svg.New(ew)
	s.Start(l.Width, l.Height)

	if st.filter != nil {
		st.filter.WriteSVG(s)
	}

	clipID := cfg.ID + "-clip"
	glowID := cfg.ID + "-highlight"
	sheenID := cfg.ID + "-sheen"
	r := int(math.Round(l.CornerRadius))
	hl := l.Highlight.Color

	s.Def()
	s.RadialGradient(glowID, 50, 0, 100, 50, 0, []svg.Offcolor{
		{Offset: 0, Color: hexRGB(hl), Opacity: hl.A},
		{Offset: uint8(l.Highlight.Stop * 100), Color: hexRGB(hl), Opacity: 0},
	})
	s.LinearGradient(sheenID, 0, 0, 0, 100, []svg.Offcolor{
		{Offset: 0, Color: "#ffffff", Opacity: l.Highlight.Sheen},
		{Offset: 100, Color: "#ffffff", Opacity: 0},
	})
	s.ClipPath(fmt.Sprintf(`id="%s"`, clipID))
	s.Roundrect(0, 0, l.Width, l.Height, r, r)
	s.ClipEnd()
	s.DefEnd()

	s.Group(fmt.Sprintf(`clip-path="url(#%s)"`, clipID))

	backdrop := []string{
		`fill="transparent"`,
		fmt.Sprintf(`style="backdrop-filter: %s"`, l.Backdrop.CSS()),
	}
	if l.Backdrop.FilterID != "" {
		backdrop = append(backdrop, fmt.Sprintf(`filter="url(#%s)"`, l.Backdrop.FilterID))
	}
	s.Rect(0, 0, l.Width, l.Height, backdrop...)
	s.Rect(0, 0, l.Width, l.Height, fmt.Sprintf(`fill="%s"`, l.Tint.CSS()))
	s.Rect(0, 0, l.Width, l.Height,
		fmt.Sprintf(`fill="url(#%s)"`, glowID),
		fmt.Sprintf(`opacity="%g"`, l.Highlight.Opacity))
	s.Rect(0, 0, l.Width, l.Height,
		fmt.Sprintf(`fill="url(#%s)"`, sheenID),
		fmt.Sprintf(`opacity="%g"`, l.Highlight.Opacity))

	s.Group(`class="glass-content"`,
		fmt.Sprintf(`transform="translate(%d,%d)"`, l.Content.Min.X, l.Content.Min.Y))
	s.Gend()

	s.Gend()
	s.Roundrect(0, 0, l.Width, l.Height, r, r,
		`fill="none"`,
		fmt.Sprintf(`stroke="%s"`, l.Border.CSS()),
		`stroke-width="1"`)
	s.End()
	return ew.err
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return len(b), nil
	}
	n, err := e.w.Write(b)
	if err != nil {
		e.err = err
	}
	return n, err
}

func hexRGB(c RGBA) string {
	n := c.WithAlpha(1).Color().(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
