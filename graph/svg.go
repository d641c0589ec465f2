package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG emits the gradient definitions and the <filter> element inside a
// <defs> block of s.
func (g *Graph) WriteSVG(s *svg.SVG) {
	s.Def()
	for _, gr := range g.gradients {
		writeRadialGradient(s, gr)
	}
	s.Filter(g.id,
		fmt.Sprintf(`x="%g%%" y="%g%%" width="%g%%" height="%g%%"`,
			g.region.X, g.region.Y, g.region.Width, g.region.Height),
		`color-interpolation-filters="sRGB"`)
	for _, n := range g.nodes {
		n.writeSVG(s)
	}
	s.Fend()
	s.DefEnd()
}

func (n Node) writeSVG(s *svg.SVG) {
	fs := svg.Filterspec{In: string(n.In), In2: string(n.In2), Result: string(n.Result)}

	switch n.Kind {
	case KindImage:
		s.FeImage(n.Href, string(n.Result),
			`x="0" y="0" width="100%" height="100%"`,
			`preserveAspectRatio="xMidYMid slice"`)
	case KindColorMatrix:
		var values [20]float64
		for i, v := range n.Matrix {
			values[i] = float64(v)
		}
		s.FeColorMatrix(fs, values)
	case KindComponentTransfer:
		writeComponentTransfer(s, fs, n.Funcs)
	case KindDisplacementMap:
		fmt.Fprintf(s.Writer, `<feDisplacementMap %sscale="%s" xChannelSelector="%s" yChannelSelector="%s"/>`+"\n",
			filterAttrs(fs), number(n.Scale), n.XChannel, n.YChannel)
	case KindBlend:
		s.FeBlend(fs, n.Mode.String())
	case KindGaussianBlur:
		fmt.Fprintf(s.Writer, `<feGaussianBlur %sstdDeviation="%s %s"/>`+"\n",
			filterAttrs(fs), number(max(0, n.StdDevX)), number(max(0, n.StdDevY)))
	case KindComposite:
		if n.Op == CompositeArithmetic {
			fmt.Fprintf(s.Writer, `<feComposite %soperator="arithmetic" k1="%g" k2="%g" k3="%g" k4="%g"/>`+"\n",
				filterAttrs(fs), n.K[0], n.K[1], n.K[2], n.K[3])
			return
		}
		s.FeComposite(fs, n.Op.String(), 0, 0, 0, 0)
	case KindOffset:
		s.FeOffset(fs, int(math.Round(n.DX)), int(math.Round(n.DY)))
	case KindFlood:
		color, opacity := cssColor(n.Color)
		s.FeFlood(fs, color, opacity)
	}
}

// writeComponentTransfer writes the element by hand because svgo's
// FeComponentTransfer carries no in or result attributes.
func writeComponentTransfer(s *svg.SVG, fs svg.Filterspec, funcs [4]TransferFunc) {
	fmt.Fprintf(s.Writer, "<feComponentTransfer %s>\n", filterAttrs(fs))
	for i, f := range funcs {
		channel := Channel(i).String()
		switch f.Type {
		case TransferTable:
			writeFunc(s, channel, "table", f.Table)
		case TransferDiscrete:
			writeFunc(s, channel, "discrete", f.Table)
		case TransferLinear:
			fmt.Fprintf(s.Writer, `<feFunc%s type="linear" slope="%s" intercept="%s"/>`+"\n",
				channel, number32(f.Slope), number32(f.Intercept))
		}
	}
	s.FeCompEnd()
}

func filterAttrs(fs svg.Filterspec) string {
	var attrs string
	if fs.In != "" {
		attrs += fmt.Sprintf(`in="%s" `, fs.In)
	}
	if fs.In2 != "" {
		attrs += fmt.Sprintf(`in2="%s" `, fs.In2)
	}
	if fs.Result != "" {
		attrs += fmt.Sprintf(`result="%s" `, fs.Result)
	}
	return attrs
}

// writeRadialGradient writes the gradient by hand because svgo rounds stop
// offsets and geometry to whole percentages.
func writeRadialGradient(s *svg.SVG, gr RadialGradient) {
	cx, cy, r := number(clampPercent(gr.CX)), number(clampPercent(gr.CY)), number(clampPercent(gr.R))
	fmt.Fprintf(s.Writer, `<radialGradient id="%s" cx="%s%%" cy="%s%%" r="%s%%" fx="%s%%" fy="%s%%">`+"\n",
		gr.ID, cx, cy, r, cx, cy)
	for _, st := range gr.Stops {
		fmt.Fprintf(s.Writer, `<stop offset="%s%%" stop-color="%s" stop-opacity="%s"/>`+"\n",
			number(clampPercent(st.Offset)), st.Color, number(st.Opacity))
	}
	fmt.Fprintln(s.Writer, "</radialGradient>")
}

func writeFunc(s *svg.SVG, channel, kind string, table []float64) {
	values := make([]string, len(table))
	for i, v := range table {
		values[i] = number(v)
	}
	fmt.Fprintf(s.Writer, `<feFunc%s type="%s" tableValues="%s"/>`+"\n",
		channel, kind, strings.Join(values, " "))
}

// number formats v with ten significant digits, dropping the binary
// representation noise of derived constants such as 2.2*0.05.
func number(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// number32 formats v with the shortest digits that round-trip as float32.
func number32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// cssColor converts a premultiplied color to an rgb() string and opacity.
func cssColor(c Color) (string, float64) {
	if c.A <= 0 {
		return "rgb(0,0,0)", 0
	}
	ch := func(v float32) int {
		return int(math.Round(float64(min(1, v/c.A)) * 255))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", ch(c.R), ch(c.G), ch(c.B)), float64(c.A)
}
