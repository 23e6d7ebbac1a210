package smiles

// group is a named substructure test over the molecular graph.
type group struct {
	name   string
	detect func(m *Molecule) bool
}

// groupCatalog is checked in order; FunctionalGroups reports matches in the
// same order.
var groupCatalog = []group{
	{"carboxylic acid", func(m *Molecule) bool { return m.anyCarbonyl(carbonylAcid) }},
	{"carboxylate", func(m *Molecule) bool { return m.anyCarbonyl(carbonylCarboxylate) }},
	{"ester", func(m *Molecule) bool { return m.anyCarbonyl(carbonylEster) }},
	{"amide", func(m *Molecule) bool { return m.anyCarbonyl(carbonylAmide) }},
	{"acyl halide", func(m *Molecule) bool { return m.anyCarbonyl(carbonylAcylHalide) }},
	{"aldehyde", func(m *Molecule) bool { return m.anyCarbonyl(carbonylAldehyde) }},
	{"ketone", func(m *Molecule) bool { return m.anyCarbonyl(carbonylKetone) }},
	{"alcohol", (*Molecule).hasAlcohol},
	{"phenol", (*Molecule).hasPhenol},
	{"ether", (*Molecule).hasEther},
	{"primary amine", func(m *Molecule) bool { return m.hasAmine(1) }},
	{"secondary amine", func(m *Molecule) bool { return m.hasAmine(2) }},
	{"tertiary amine", func(m *Molecule) bool { return m.hasAmine(3) }},
	{"imine", (*Molecule).hasImine},
	{"nitrile", (*Molecule).hasNitrile},
	{"nitro", (*Molecule).hasNitro},
	{"alkene", func(m *Molecule) bool { return m.hasCarbonCarbon(BondDouble) }},
	{"alkyne", func(m *Molecule) bool { return m.hasCarbonCarbon(BondTriple) }},
	{"halide", (*Molecule).hasHalide},
	{"thiol", (*Molecule).hasThiol},
	{"thioether", (*Molecule).hasThioether},
	{"sulfonamide", (*Molecule).hasSulfonamide},
	{"sulfonyl", (*Molecule).hasSulfonyl},
	{"phosphate", (*Molecule).hasPhosphate},
	{"benzene ring", (*Molecule).hasBenzene},
	{"heteroaromatic ring", (*Molecule).hasHeteroaromatic},
}

// FunctionalGroups lists the functional groups present in the molecule.
func (m *Molecule) FunctionalGroups() []string {
	var out []string
	for _, g := range groupCatalog {
		if g.detect(m) {
			out = append(out, g.name)
		}
	}
	return out
}

type carbonylKind int

const (
	carbonylAcid carbonylKind = iota
	carbonylCarboxylate
	carbonylEster
	carbonylAmide
	carbonylAcylHalide
	carbonylAldehyde
	carbonylKetone
	carbonylOther
)

func isHalogen(sym string) bool {
	switch sym {
	case "F", "Cl", "Br", "I":
		return true
	}
	return false
}

// heavyDegree counts non-hydrogen neighbours of atom i.
func (m *Molecule) heavyDegree(i int) int {
	n := 0
	for _, bi := range m.adj[i] {
		if m.Atoms[m.Bonds[bi].Other(i)].Symbol != "H" {
			n++
		}
	}
	return n
}

// totalH counts implicit hydrogens plus explicit [H] neighbours.
func (m *Molecule) totalH(i int) int {
	n := m.Atoms[i].HCount
	for _, bi := range m.adj[i] {
		if m.Atoms[m.Bonds[bi].Other(i)].Symbol == "H" {
			n++
		}
	}
	return n
}

// carbonylOxygen returns the index of an oxygen double bonded to carbon i,
// or -1.
func (m *Molecule) carbonylOxygen(i int) int {
	if m.Atoms[i].Symbol != "C" || m.Atoms[i].Aromatic {
		return -1
	}
	for _, bi := range m.adj[i] {
		b := m.Bonds[bi]
		o := b.Other(i)
		if b.Order == BondDouble && m.Atoms[o].Symbol == "O" {
			return o
		}
	}
	return -1
}

func (m *Molecule) isCarbonylCarbon(i int) bool { return m.carbonylOxygen(i) >= 0 }

// classifyCarbonyl names the carbonyl centred on carbon i.
func (m *Molecule) classifyCarbonyl(i int) carbonylKind {
	oxo := m.carbonylOxygen(i)
	if oxo < 0 {
		return carbonylOther
	}
	carbons := 0
	for _, bi := range m.adj[i] {
		b := m.Bonds[bi]
		n := b.Other(i)
		if n == oxo || b.Order != BondSingle {
			continue
		}
		a := m.Atoms[n]
		switch {
		case a.Symbol == "O" && a.Charge == -1:
			return carbonylCarboxylate
		case a.Symbol == "O" && m.totalH(n) > 0:
			return carbonylAcid
		case a.Symbol == "O" && m.heavyDegree(n) == 2:
			return carbonylEster
		case a.Symbol == "N":
			return carbonylAmide
		case isHalogen(a.Symbol):
			return carbonylAcylHalide
		case a.Symbol == "C":
			carbons++
		}
	}
	switch {
	case m.totalH(i) > 0:
		return carbonylAldehyde
	case carbons == 2:
		return carbonylKetone
	}
	return carbonylOther
}

func (m *Molecule) anyCarbonyl(kind carbonylKind) bool {
	for i := range m.Atoms {
		if m.isCarbonylCarbon(i) && m.classifyCarbonyl(i) == kind {
			return true
		}
	}
	return false
}

// hydroxylCarbon returns the carbon carrying hydroxyl oxygen o, or -1.
func (m *Molecule) hydroxylCarbon(o int) int {
	a := m.Atoms[o]
	if a.Symbol != "O" || a.Aromatic || a.Charge != 0 || m.totalH(o) == 0 || m.heavyDegree(o) != 1 {
		return -1
	}
	for _, bi := range m.adj[o] {
		b := m.Bonds[bi]
		n := b.Other(o)
		if m.Atoms[n].Symbol == "C" && b.Order == BondSingle {
			return n
		}
	}
	return -1
}

func (m *Molecule) hasAlcohol() bool {
	for i := range m.Atoms {
		c := m.hydroxylCarbon(i)
		if c >= 0 && !m.Atoms[c].Aromatic && !m.isCarbonylCarbon(c) {
			return true
		}
	}
	return false
}

func (m *Molecule) hasPhenol() bool {
	for i := range m.Atoms {
		c := m.hydroxylCarbon(i)
		if c >= 0 && m.Atoms[c].Aromatic {
			return true
		}
	}
	return false
}

func (m *Molecule) hasEther() bool {
	for i, a := range m.Atoms {
		if a.Symbol != "O" || a.Aromatic || a.Charge != 0 || len(m.adj[i]) != 2 {
			continue
		}
		ok := true
		for _, bi := range m.adj[i] {
			b := m.Bonds[bi]
			n := b.Other(i)
			if b.Order != BondSingle || m.Atoms[n].Symbol != "C" || m.isCarbonylCarbon(n) {
				ok = false
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// hasAmine reports an sp3 nitrogen bonded to exactly order carbons and
// otherwise to hydrogen only. Amide nitrogens are excluded.
func (m *Molecule) hasAmine(order int) bool {
	for i, a := range m.Atoms {
		if a.Symbol != "N" || a.Aromatic || a.Charge != 0 {
			continue
		}
		carbons, ok := 0, true
		for _, bi := range m.adj[i] {
			b := m.Bonds[bi]
			n := b.Other(i)
			switch {
			case m.Atoms[n].Symbol == "H":
			case b.Order != BondSingle:
				ok = false
			case m.Atoms[n].Symbol != "C":
				ok = false
			case m.isCarbonylCarbon(n):
				ok = false
			default:
				carbons++
			}
		}
		if ok && carbons == order {
			return true
		}
	}
	return false
}

func (m *Molecule) hasImine() bool {
	for _, b := range m.Bonds {
		if b.Order != BondDouble {
			continue
		}
		x, y := m.Atoms[b.A], m.Atoms[b.B]
		if x.Symbol == "C" && y.Symbol == "N" && y.Charge == 0 ||
			x.Symbol == "N" && y.Symbol == "C" && x.Charge == 0 {
			return true
		}
	}
	return false
}

func (m *Molecule) hasNitrile() bool {
	for _, b := range m.Bonds {
		if b.Order != BondTriple {
			continue
		}
		x, y := m.Atoms[b.A].Symbol, m.Atoms[b.B].Symbol
		if x == "C" && y == "N" || x == "N" && y == "C" {
			return true
		}
	}
	return false
}

func (m *Molecule) hasNitro() bool {
	for i, a := range m.Atoms {
		if a.Symbol != "N" {
			continue
		}
		oxygens := 0
		for _, bi := range m.adj[i] {
			if m.Atoms[m.Bonds[bi].Other(i)].Symbol == "O" {
				oxygens++
			}
		}
		if oxygens == 2 && m.heavyDegree(i) == 3 {
			return true
		}
	}
	return false
}

func (m *Molecule) hasCarbonCarbon(order int) bool {
	for _, b := range m.Bonds {
		if b.Order == order && m.Atoms[b.A].Symbol == "C" && m.Atoms[b.B].Symbol == "C" {
			return true
		}
	}
	return false
}

func (m *Molecule) hasHalide() bool {
	for i, a := range m.Atoms {
		if !isHalogen(a.Symbol) {
			continue
		}
		for _, bi := range m.adj[i] {
			n := m.Bonds[bi].Other(i)
			if m.Atoms[n].Symbol == "C" && !m.isCarbonylCarbon(n) {
				return true
			}
		}
	}
	return false
}

func (m *Molecule) hasThiol() bool {
	for i, a := range m.Atoms {
		if a.Symbol == "S" && !a.Aromatic && a.Charge == 0 && m.totalH(i) > 0 && m.heavyDegree(i) == 1 {
			return true
		}
	}
	return false
}

func (m *Molecule) hasThioether() bool {
	for i, a := range m.Atoms {
		if a.Symbol != "S" || a.Aromatic || len(m.adj[i]) != 2 {
			continue
		}
		ok := true
		for _, bi := range m.adj[i] {
			b := m.Bonds[bi]
			if b.Order != BondSingle || m.Atoms[b.Other(i)].Symbol != "C" {
				ok = false
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// sulfonylCentres returns sulfur atoms carrying two double-bonded oxygens.
func (m *Molecule) sulfonylCentres() []int {
	var out []int
	for i, a := range m.Atoms {
		if a.Symbol != "S" {
			continue
		}
		oxo := 0
		for _, bi := range m.adj[i] {
			b := m.Bonds[bi]
			if b.Order == BondDouble && m.Atoms[b.Other(i)].Symbol == "O" {
				oxo++
			}
		}
		if oxo == 2 {
			out = append(out, i)
		}
	}
	return out
}

func (m *Molecule) hasSulfonamide() bool {
	for _, s := range m.sulfonylCentres() {
		for _, bi := range m.adj[s] {
			if m.Atoms[m.Bonds[bi].Other(s)].Symbol == "N" {
				return true
			}
		}
	}
	return false
}

func (m *Molecule) hasSulfonyl() bool {
	return len(m.sulfonylCentres()) > 0 && !m.hasSulfonamide()
}

func (m *Molecule) hasPhosphate() bool {
	for i, a := range m.Atoms {
		if a.Symbol != "P" {
			continue
		}
		oxygens := 0
		for _, bi := range m.adj[i] {
			if m.Atoms[m.Bonds[bi].Other(i)].Symbol == "O" {
				oxygens++
			}
		}
		if oxygens == 4 {
			return true
		}
	}
	return false
}

// hasBenzene looks for a six-membered cycle of aromatic carbons.
func (m *Molecule) hasBenzene() bool {
	aromaticC := func(i int) bool { return m.Atoms[i].Aromatic && m.Atoms[i].Symbol == "C" }
	for i := range m.Atoms {
		if aromaticC(i) && m.cycleThrough(i, 6, aromaticC) {
			return true
		}
	}
	return false
}

func (m *Molecule) hasHeteroaromatic() bool {
	for _, a := range m.Atoms {
		if a.Aromatic && a.Symbol != "C" {
			return true
		}
	}
	return false
}

// cycleThrough reports whether atom start lies on a simple cycle of exactly
// size atoms, all satisfying keep.
func (m *Molecule) cycleThrough(start, size int, keep func(int) bool) bool {
	visited := make([]bool, len(m.Atoms))
	var walk func(cur, depth int) bool
	walk = func(cur, depth int) bool {
		for _, bi := range m.adj[cur] {
			n := m.Bonds[bi].Other(cur)
			if n == start && depth == size {
				return true
			}
			if visited[n] || !keep(n) || depth >= size {
				continue
			}
			visited[n] = true
			if walk(n, depth+1) {
				return true
			}
			visited[n] = false
		}
		return false
	}
	visited[start] = true
	return walk(start, 1)
}
