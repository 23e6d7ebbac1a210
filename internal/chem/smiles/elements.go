package smiles

// element holds the per-element data needed for hydrogen assignment,
// weights and fingerprint invariants.
type element struct {
	number   int
	average  float64 // standard atomic weight; mass number of the longest-lived isotope when unstable
	valences []int   // default valences; only set for the organic subset
}

var elements = map[string]element{
	"*":  {number: 0},
	"H":  {number: 1, average: 1.008},
	"He": {number: 2, average: 4.0026},
	"Li": {number: 3, average: 6.94},
	"Be": {number: 4, average: 9.0122},
	"B":  {number: 5, average: 10.81, valences: []int{3}},
	"C":  {number: 6, average: 12.011, valences: []int{4}},
	"N":  {number: 7, average: 14.007, valences: []int{3, 5}},
	"O":  {number: 8, average: 15.999, valences: []int{2}},
	"F":  {number: 9, average: 18.998, valences: []int{1}},
	"Ne": {number: 10, average: 20.180},
	"Na": {number: 11, average: 22.990},
	"Mg": {number: 12, average: 24.305},
	"Al": {number: 13, average: 26.982},
	"Si": {number: 14, average: 28.085},
	"P":  {number: 15, average: 30.974, valences: []int{3, 5}},
	"S":  {number: 16, average: 32.06, valences: []int{2, 4, 6}},
	"Cl": {number: 17, average: 35.45, valences: []int{1}},
	"Ar": {number: 18, average: 39.948},
	"K":  {number: 19, average: 39.098},
	"Ca": {number: 20, average: 40.078},
	"Sc": {number: 21, average: 44.956},
	"Ti": {number: 22, average: 47.867},
	"V":  {number: 23, average: 50.942},
	"Cr": {number: 24, average: 51.996},
	"Mn": {number: 25, average: 54.938},
	"Fe": {number: 26, average: 55.845},
	"Co": {number: 27, average: 58.933},
	"Ni": {number: 28, average: 58.693},
	"Cu": {number: 29, average: 63.546},
	"Zn": {number: 30, average: 65.38},
	"Ga": {number: 31, average: 69.723},
	"Ge": {number: 32, average: 72.630},
	"As": {number: 33, average: 74.922},
	"Se": {number: 34, average: 78.971},
	"Br": {number: 35, average: 79.904, valences: []int{1}},
	"Kr": {number: 36, average: 83.798},
	"Rb": {number: 37, average: 85.468},
	"Sr": {number: 38, average: 87.62},
	"Y":  {number: 39, average: 88.906},
	"Zr": {number: 40, average: 91.224},
	"Nb": {number: 41, average: 92.906},
	"Mo": {number: 42, average: 95.95},
	"Tc": {number: 43, average: 97},
	"Ru": {number: 44, average: 101.07},
	"Rh": {number: 45, average: 102.91},
	"Pd": {number: 46, average: 106.42},
	"Ag": {number: 47, average: 107.87},
	"Cd": {number: 48, average: 112.41},
	"In": {number: 49, average: 114.82},
	"Sn": {number: 50, average: 118.71},
	"Sb": {number: 51, average: 121.76},
	"Te": {number: 52, average: 127.60},
	"I":  {number: 53, average: 126.90, valences: []int{1}},
	"Xe": {number: 54, average: 131.29},
	"Cs": {number: 55, average: 132.91},
	"Ba": {number: 56, average: 137.33},
	"La": {number: 57, average: 138.91},
	"Ce": {number: 58, average: 140.12},
	"Pr": {number: 59, average: 140.91},
	"Nd": {number: 60, average: 144.24},
	"Pm": {number: 61, average: 145},
	"Sm": {number: 62, average: 150.36},
	"Eu": {number: 63, average: 151.96},
	"Gd": {number: 64, average: 157.25},
	"Tb": {number: 65, average: 158.93},
	"Dy": {number: 66, average: 162.50},
	"Ho": {number: 67, average: 164.93},
	"Er": {number: 68, average: 167.26},
	"Tm": {number: 69, average: 168.93},
	"Yb": {number: 70, average: 173.05},
	"Lu": {number: 71, average: 174.97},
	"Hf": {number: 72, average: 178.49},
	"Ta": {number: 73, average: 180.95},
	"W":  {number: 74, average: 183.84},
	"Re": {number: 75, average: 186.21},
	"Os": {number: 76, average: 190.23},
	"Ir": {number: 77, average: 192.22},
	"Pt": {number: 78, average: 195.08},
	"Au": {number: 79, average: 196.97},
	"Hg": {number: 80, average: 200.59},
	"Tl": {number: 81, average: 204.38},
	"Pb": {number: 82, average: 207.2},
	"Bi": {number: 83, average: 208.98},
	"Po": {number: 84, average: 209},
	"At": {number: 85, average: 210},
	"Rn": {number: 86, average: 222},
	"Fr": {number: 87, average: 223},
	"Ra": {number: 88, average: 226},
	"Ac": {number: 89, average: 227},
	"Th": {number: 90, average: 232.04},
	"Pa": {number: 91, average: 231.04},
	"U":  {number: 92, average: 238.03},
	"Np": {number: 93, average: 237},
	"Pu": {number: 94, average: 244},
	"Am": {number: 95, average: 243},
	"Cm": {number: 96, average: 247},
	"Bk": {number: 97, average: 247},
	"Cf": {number: 98, average: 251},
	"Es": {number: 99, average: 252},
	"Fm": {number: 100, average: 257},
	"Md": {number: 101, average: 258},
	"No": {number: 102, average: 259},
	"Lr": {number: 103, average: 266},
	"Rf": {number: 104, average: 267},
	"Db": {number: 105, average: 268},
	"Sg": {number: 106, average: 269},
	"Bh": {number: 107, average: 270},
	"Hs": {number: 108, average: 269},
	"Mt": {number: 109, average: 278},
	"Ds": {number: 110, average: 281},
	"Rg": {number: 111, average: 282},
	"Cn": {number: 112, average: 285},
	"Nh": {number: 113, average: 286},
	"Fl": {number: 114, average: 289},
	"Mc": {number: 115, average: 290},
	"Lv": {number: 116, average: 293},
	"Ts": {number: 117, average: 294},
	"Og": {number: 118, average: 294},
}

// aromaticSymbols maps the lowercase aromatic spellings to element symbols.
var aromaticSymbols = map[string]string{
	"b":  "B",
	"c":  "C",
	"n":  "N",
	"o":  "O",
	"p":  "P",
	"s":  "S",
	"se": "Se",
	"as": "As",
}
