package codec

import "gonum.org/v1/gonum/floats"

// Relativize subtracts the mean of vs from every element in place and
// returns that mean. Centred windows stay near zero where the logarithmic
// code is most precise; the mean itself travels separately through the
// linear code. An empty slice has mean 0.
func Relativize(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	absolute := floats.Sum(vs) / float64(len(vs))
	floats.AddConst(-absolute, vs)
	return absolute
}
