// Package smiles parses SMILES line notation into a molecular graph and
// computes the descriptors the chemistry tools need locally: molecular
// weight, functional groups and circular fingerprints.
package smiles

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSMILES is wrapped by every parse failure.
var ErrInvalidSMILES = errors.New("invalid SMILES")

// Bond orders. Aromatic bonds keep their own order so perception code can
// tell them apart from single bonds.
const (
	BondSingle    = 1
	BondDouble    = 2
	BondTriple    = 3
	BondQuadruple = 4
	BondAromatic  = 5
)

// Atom is a single vertex of the molecular graph.
type Atom struct {
	Symbol   string
	Aromatic bool
	Charge   int
	Isotope  int
	HCount   int // implicit plus explicit hydrogens
	Bracket  bool
}

// Bond connects atoms A and B.
type Bond struct {
	A, B  int
	Order int
}

// Other returns the atom on the far side of the bond from i.
func (b Bond) Other(i int) int {
	if b.A == i {
		return b.B
	}
	return b.A
}

// Molecule is a parsed SMILES string.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond

	adj        [][]int // bond indices per atom
	components int
}

// Neighbors returns the bonds touching atom i.
func (m *Molecule) Neighbors(i int) []Bond {
	out := make([]Bond, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		out = append(out, m.Bonds[bi])
	}
	return out
}

// Components returns the number of dot-separated fragments.
func (m *Molecule) Components() int { return m.components }

// Valid reports whether s parses as SMILES.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse reads a SMILES string.
func Parse(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidSMILES)
	}
	p := &parser{
		src:   s,
		prev:  -1,
		rings: make(map[int]ringOpen),
		mol:   &Molecule{components: 1},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.mol.assignHydrogens()
	return p.mol, nil
}

type ringOpen struct {
	atom  int
	order int
}

type parser struct {
	src     string
	pos     int
	prev    int
	pending int
	branch  []int
	rings   map[int]ringOpen
	mol     *Molecule
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d in %q", ErrInvalidSMILES, fmt.Sprintf(format, args...), p.pos, p.src)
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch without preceding atom")
			}
			p.branch = append(p.branch, p.prev)
			p.pos++
		case c == ')':
			if len(p.branch) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.errorf("bond before ')'")
			}
			p.prev = p.branch[len(p.branch)-1]
			p.branch = p.branch[:len(p.branch)-1]
			p.pos++
		case c == '-' || c == '/' || c == '\\':
			if err := p.setBond(BondSingle); err != nil {
				return err
			}
		case c == '=':
			if err := p.setBond(BondDouble); err != nil {
				return err
			}
		case c == '#':
			if err := p.setBond(BondTriple); err != nil {
				return err
			}
		case c == '$':
			if err := p.setBond(BondQuadruple); err != nil {
				return err
			}
		case c == ':':
			if err := p.setBond(BondAromatic); err != nil {
				return err
			}
		case c == '.':
			if p.prev < 0 || p.pending != 0 || len(p.branch) != 0 {
				return p.errorf("misplaced '.'")
			}
			p.prev = -1
			p.mol.components++
			p.pos++
		case c >= '0' && c <= '9':
			if err := p.ring(int(c - '0')); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
				return p.errorf("'%%' must be followed by two digits")
			}
			n := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
			if err := p.ring(n); err != nil {
				return err
			}
			p.pos += 3
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}

	switch {
	case len(p.mol.Atoms) == 0:
		return p.errorf("no atoms")
	case p.pending != 0:
		return p.errorf("dangling bond")
	case len(p.branch) != 0:
		return p.errorf("unclosed branch")
	case len(p.rings) != 0:
		return p.errorf("unclosed ring")
	}
	return nil
}

func (p *parser) setBond(order int) error {
	if p.prev < 0 || p.pending != 0 {
		return p.errorf("unexpected bond symbol %q", p.src[p.pos])
	}
	p.pending = order
	p.pos++
	return nil
}

func (p *parser) ring(n int) error {
	if p.prev < 0 {
		return p.errorf("ring closure without atom")
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringOpen{atom: p.prev, order: p.pending}
		p.pending = 0
		return nil
	}
	delete(p.rings, n)
	if open.atom == p.prev {
		return p.errorf("ring %d closes on itself", n)
	}
	order := p.pending
	if order == 0 {
		order = open.order
	}
	p.pending = 0
	p.mol.addBond(open.atom, p.prev, p.defaultOrder(order, open.atom, p.prev))
	return nil
}

func (p *parser) defaultOrder(order, a, b int) int {
	if order != 0 {
		return order
	}
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return BondAromatic
	}
	return BondSingle
}

func (p *parser) addAtom(a Atom) {
	idx := len(p.mol.Atoms)
	p.mol.Atoms = append(p.mol.Atoms, a)
	p.mol.adj = append(p.mol.adj, nil)
	if p.prev >= 0 {
		p.mol.addBond(p.prev, idx, p.defaultOrder(p.pending, p.prev, idx))
	}
	p.pending = 0
	p.prev = idx
}

func (m *Molecule) addBond(a, b, order int) {
	m.Bonds = append(m.Bonds, Bond{A: a, B: b, Order: order})
	bi := len(m.Bonds) - 1
	m.adj[a] = append(m.adj[a], bi)
	m.adj[b] = append(m.adj[b], bi)
}

func (p *parser) organicAtom() error {
	rest := p.src[p.pos:]
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.addAtom(Atom{Symbol: sym})
			p.pos += 2
			return nil
		}
	}
	c := rest[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I', '*':
		p.addAtom(Atom{Symbol: string(c)})
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.addAtom(Atom{Symbol: aromaticSymbols[string(c)], Aromatic: true})
	default:
		return p.errorf("unexpected character %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) bracketAtom() error {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return p.errorf("unclosed '['")
	}
	body := p.src[p.pos+1 : p.pos+end]
	atom, err := parseBracket(body)
	if err != nil {
		return p.errorf("%v", err)
	}
	p.addAtom(atom)
	p.pos += end + 1
	return nil
}

// parseBracket reads isotope, symbol, chirality, hydrogen count, charge
// and atom class from the inside of a bracket atom.
func parseBracket(body string) (Atom, error) {
	a := Atom{Bracket: true}
	i := 0

	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	if i >= len(body) {
		return a, errors.New("missing element symbol")
	}
	switch {
	case i+1 < len(body) && aromaticSymbols[body[i:i+2]] != "":
		a.Symbol, a.Aromatic = aromaticSymbols[body[i:i+2]], true
		i += 2
	case aromaticSymbols[body[i:i+1]] != "":
		a.Symbol, a.Aromatic = aromaticSymbols[body[i:i+1]], true
		i++
	case body[i] == '*':
		a.Symbol = "*"
		i++
	case body[i] >= 'A' && body[i] <= 'Z':
		n := 1
		if i+1 < len(body) && body[i+1] >= 'a' && body[i+1] <= 'z' {
			n = 2
		}
		sym := body[i : i+n]
		if _, ok := elements[sym]; !ok {
			return a, fmt.Errorf("unknown element %q", sym)
		}
		a.Symbol = sym
		i += len(sym)
	default:
		return a, fmt.Errorf("unexpected %q in bracket atom", body[i])
	}

	if i < len(body) && body[i] == '@' {
		for i < len(body) && body[i] == '@' {
			i++
		}
		for i < len(body) && (body[i] >= 'A' && body[i] <= 'Z' || isDigit(body[i])) && body[i] != 'H' {
			i++
		}
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		sym := body[i]
		i++
		n := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			n = 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
		default:
			for i < len(body) && body[i] == sym {
				n++
				i++
			}
		}
		a.Charge = sign * n
	}

	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	if i != len(body) {
		return a, fmt.Errorf("trailing %q in bracket atom", body[i:])
	}
	return a, nil
}

// assignHydrogens fills HCount for organic-subset atoms from their default
// valences. Bracket atoms keep the explicit count.
func (m *Molecule) assignHydrogens() {
	for i := range m.Atoms {
		a := &m.Atoms[i]
		if a.Bracket {
			continue
		}
		el := elements[a.Symbol]
		if len(el.valences) == 0 {
			continue
		}
		if a.Aromatic && (a.Symbol == "O" || a.Symbol == "S") {
			continue
		}

		sum := 0
		for _, b := range m.Neighbors(i) {
			if b.Order == BondAromatic {
				sum++
			} else {
				sum += b.Order
			}
		}
		valences := el.valences
		if a.Aromatic {
			sum++
			valences = valences[:1]
		}

		for _, v := range valences {
			if v >= sum {
				a.HCount = v - sum
				break
			}
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
