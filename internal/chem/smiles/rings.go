package smiles

// ringBonds marks every bond that lies on a cycle. A bond is a ring bond when
// its endpoints stay connected after the bond is removed.
func (m *Molecule) ringBonds() []bool {
	inRing := make([]bool, len(m.Bonds))
	for bi, b := range m.Bonds {
		inRing[bi] = m.connectedWithout(b.A, b.B, bi)
	}
	return inRing
}

func (m *Molecule) connectedWithout(from, to, skip int) bool {
	seen := make([]bool, len(m.Atoms))
	stack := []int{from}
	seen[from] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, bi := range m.adj[cur] {
			if bi == skip {
				continue
			}
			next := m.Bonds[bi].Other(cur)
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// ringAtoms marks atoms touching at least one ring bond.
func (m *Molecule) ringAtoms() []bool {
	rb := m.ringBonds()
	out := make([]bool, len(m.Atoms))
	for bi, ok := range rb {
		if ok {
			out[m.Bonds[bi].A] = true
			out[m.Bonds[bi].B] = true
		}
	}
	return out
}
