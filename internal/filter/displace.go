// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"fmt"
	"math"
)

// Channel selects a color channel of a displacement map.
type Channel uint8

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
)

// String returns the feDisplacementMap channel selector letter.
func (c Channel) String() string {
	return [...]string{"R", "G", "B", "A"}[c&3]
}

// Displace moves every pixel of src by the vector encoded in dmap:
//
//	P'(x,y) = P(x + scale*(XC(x,y) - 0.5), y + scale*(YC(x,y) - 0.5))
//
// where XC and YC are the selected unpremultiplied map channels. Samples use
// the nearest source pixel; samples outside src are transparent.
func Displace(src, dmap *Image, scale float64, xc, yc Channel) (*Image, error) {
	if !src.SameSize(dmap) {
		return nil, fmt.Errorf("filter: displacement map %dx%d does not match source %dx%d",
			dmap.Width, dmap.Height, src.Width, src.Height)
	}

	dst := NewImage(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			i := (y*src.Width + x) * 4
			r, g, b, a := unpremultiply(dmap.Pix[i : i+4])
			ch := [4]float32{r, g, b, a}

			dx := scale * (float64(ch[xc&3]) - 0.5)
			dy := scale * (float64(ch[yc&3]) - 0.5)

			sx := int(math.Floor(float64(x) + 0.5 + dx))
			sy := int(math.Floor(float64(y) + 0.5 + dy))
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst, nil
}
