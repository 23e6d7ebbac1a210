package smiles

import "math"

// AverageWeight returns the molecular weight using standard atomic weights,
// hydrogens included.
func (m *Molecule) AverageWeight() float64 {
	var w float64
	for _, a := range m.Atoms {
		w += elements[a.Symbol].average
		w += float64(a.HCount) * elements["H"].average
	}
	return w
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
