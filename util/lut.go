package util

import "github.com/fogleman/ease"

// GenerateLut builds a symmetric brightness table that rises from 0 to
// nearly 1 over the first half and falls back over the second.
func GenerateLut(length int) []float64 {
	if length <= 0 {
		return nil
	}
	lut := make([]float64, length)
	half := length / 2
	if half == 0 {
		return lut
	}
	increment := 1.0 / float64(half)
	for i, j := 0, length-1; i < half; i, j = i+1, j-1 {
		value := ease.InOutQuad(float64(i) * increment)
		lut[i] = value
		lut[j] = value
	}
	return lut
}

// LutAt samples lut at fraction f in [0, 1].
func LutAt(lut []float64, f float64) float64 {
	if len(lut) == 0 {
		return 0
	}
	i := int(f * float64(len(lut)-1))
	if i < 0 {
		i = 0
	} else if i >= len(lut) {
		i = len(lut) - 1
	}
	return lut[i]
}
