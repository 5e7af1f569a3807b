package stream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Frame represents a frame of RGB pixels to display on an ledrx device.
type Frame struct {
	pixels []colorful.Color
}

// NewFrame creates a black Frame of n pixels.
func NewFrame(n int) *Frame {
	if n < 0 {
		n = 0
	}
	f := new(Frame)
	f.pixels = make([]colorful.Color, n)
	return f
}

// Len returns the number of pixels.
func (f *Frame) Len() int {
	return len(f.pixels)
}

// At returns pixel i, or black when i is out of range.
func (f *Frame) At(i int) colorful.Color {
	if i < 0 || i >= len(f.pixels) {
		return colorful.Color{}
	}
	return f.pixels[i]
}

// Set sets pixel i. Out of range pixels are ignored.
func (f *Frame) Set(i int, c colorful.Color) {
	if i < 0 || i >= len(f.pixels) {
		return
	}
	f.pixels[i] = c
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c colorful.Color) {
	for i := range f.pixels {
		f.pixels[i] = c
	}
}

// InterpolateFrame blends f towards f2 by transitionPoint in HCL space.
func (f *Frame) InterpolateFrame(f2 *Frame, transitionPoint float64) *Frame {
	out := NewFrame(len(f.pixels))
	for i := range f.pixels {
		out.pixels[i] = f.pixels[i].BlendHcl(f2.At(i), transitionPoint).Clamped()
	}
	return out
}

// MarshalBinary converts a Frame into a little-endian pixel count followed by
// one RGB triple per pixel.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	n := len(f.pixels)
	if n > math.MaxUint16 {
		return nil, fmt.Errorf("frame of %d pixels exceeds %d", n, math.MaxUint16)
	}
	data = make([]byte, 2, n*3+2)
	binary.LittleEndian.PutUint16(data, uint16(n))
	for _, p := range f.pixels {
		r, g, b := p.Clamped().RGB255()
		data = append(data, r, g, b)
	}
	return data, nil
}
