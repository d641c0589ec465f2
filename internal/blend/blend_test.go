package blend

import "testing"

func TestBlendScreenSeparatesChannels(t *testing.T) {
	// Screening disjoint opaque channel layers reassembles the color exactly.
	r := Color{R: 0.8, A: 1}
	g := Color{G: 0.4, A: 1}
	b := Color{B: 0.2, A: 1}

	gb := Blend(g, b, ModeScreen)
	rgb := Blend(r, gb, ModeScreen)

	want := Color{R: 0.8, G: 0.4, B: 0.2, A: 1}
	if rgb != want {
		t.Errorf("R screen (G screen B) = %v, want %v", rgb, want)
	}
}

func TestBlendModes(t *testing.T) {
	s := Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	d := Color{R: 0.25, G: 1, B: 0, A: 1}

	tests := []struct {
		name string
		mode Mode
		want Color
	}{
		{"normal", ModeNormal, s},
		{"multiply", ModeMultiply, Color{R: 0.125, G: 0.5, B: 0, A: 1}},
		{"screen", ModeScreen, Color{R: 0.625, G: 1, B: 0.5, A: 1}},
		{"darken", ModeDarken, Color{R: 0.25, G: 0.5, B: 0, A: 1}},
		{"lighten", ModeLighten, Color{R: 0.5, G: 1, B: 0.5, A: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blend(s, d, tt.mode)
			if !colorsNear(got, tt.want) {
				t.Errorf("Blend(%v) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestBlendTransparentTop(t *testing.T) {
	d := Color{R: 0.3, G: 0.6, B: 0.9, A: 1}
	for _, mode := range []Mode{ModeNormal, ModeMultiply, ModeScreen, ModeDarken, ModeLighten} {
		if got := Blend(Color{}, d, mode); !colorsNear(got, d) {
			t.Errorf("Blend(transparent, d, %v) = %v, want %v", mode, got, d)
		}
	}
}
