package graph

import (
	"bytes"
	"strings"
	"testing"

	svg "github.com/ajstarks/svgo"
)

func TestWriteSVG(t *testing.T) {
	g, err := NewBuilder("glass-1").
		RadialGradient(RadialGradient{
			ID: "glass-1-edge-mask", CX: 50, CY: 50, R: 50,
			Stops: []Stop{
				{Offset: 0, Color: "black", Opacity: 0},
				{Offset: 76, Color: "black", Opacity: 0},
				{Offset: 100, Color: "white", Opacity: 1},
			},
		}).
		Image("map", "data:image/png;base64,AA==", "MAP").
		ComponentTransfer("MAP", [4]TransferFunc{3: {Type: TransferDiscrete, Table: []float64{0, 0.1, 1}}}, "MASK").
		DisplacementMap(SourceGraphic, "MAP", 70, ChannelR, ChannelB, "DISPLACED").
		Arithmetic("DISPLACED", "MASK", 0, 0.5, 0.5, 0, "MIX").
		Composite("MIX", SourceGraphic, CompositeOver, "").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(100, 40)
	g.WriteSVG(canvas)
	canvas.End()
	out := buf.String()

	for _, want := range []string{
		`<filter id="glass-1"`,
		`x="-35%" y="-35%" width="170%" height="170%"`,
		`color-interpolation-filters="sRGB"`,
		`<radialGradient id="glass-1-edge-mask"`,
		`offset="76%"`,
		`data:image/png;base64,AA==`,
		`<feComponentTransfer in="MAP" result="MASK" >`,
		`<feFuncA type="discrete"`,
		`xChannelSelector="R"`,
		`yChannelSelector="B"`,
		`k2="0.5" k3="0.5"`,
		`</filter>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q\n%s", want, out)
		}
	}
}

func TestWriteSVGFractionalValues(t *testing.T) {
	g, err := NewBuilder("nav").
		RadialGradient(RadialGradient{
			ID: "nav-edge-mask", CX: 50, CY: 50, R: 50,
			Stops: []Stop{
				{Offset: 75.6, Color: "black", Opacity: 0},
				{Offset: 120, Color: "white", Opacity: 0.35},
			},
		}).
		Image("map", "data:image/png;base64,AA==", "MAP").
		ComponentTransfer("MAP", [4]TransferFunc{
			0: {Type: TransferTable, Table: []float64{0.125, 1}},
			1: {Type: TransferLinear, Slope: 0.1, Intercept: 0.3},
			3: {Type: TransferDiscrete, Table: []float64{0, 2.2 * 0.05, 1}},
		}, "MASK").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	g.WriteSVG(svg.New(&buf))
	out := buf.String()

	for _, want := range []string{
		`cx="50%" cy="50%" r="50%" fx="50%" fy="50%"`,
		`<stop offset="75.6%" stop-color="black" stop-opacity="0"/>`,
		`<stop offset="100%" stop-color="white" stop-opacity="0.35"/>`,
		`<feFuncR type="table" tableValues="0.125 1"/>`,
		`<feFuncG type="linear" slope="0.1" intercept="0.3"/>`,
		`<feFuncA type="discrete" tableValues="0 0.11 1"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q\n%s", want, out)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{76, "76"},
		{75.6, "75.6"},
		{2.2 * 0.05, "0.11"},
		{float64(float32(0.11)), "0.1099999994"},
		{-20, "-20"},
	}
	for _, tt := range tests {
		if got := number(tt.in); got != tt.want {
			t.Errorf("number(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	ai := 2.2
	if got := number(ai * 0.05); got != "0.11" {
		t.Errorf("number(%v) = %q, want 0.11", ai*0.05, got)
	}
	if got := number(0.5 - ai*0.1); got != "0.28" {
		t.Errorf("number(%v) = %q, want 0.28", 0.5-ai*0.1, got)
	}
}

func TestCSSColor(t *testing.T) {
	c, op := cssColor(Color{R: 0.5, G: 0.25, B: 0, A: 0.5})
	if c != "rgb(255,128,0)" || op != 0.5 {
		t.Errorf("cssColor = %q, %v", c, op)
	}
	if _, op := cssColor(Color{}); op != 0 {
		t.Errorf("transparent opacity = %v", op)
	}
}
