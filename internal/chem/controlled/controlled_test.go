package controlled

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/chemkit/internal/chem/smiles"
)

func TestDefault_AllStructuresParse(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 25, l.Len())

	for _, c := range l.chemicals {
		_, err := smiles.Parse(c.SMILES)
		assert.NoError(t, err, c.Name)
	}
}

func TestByCAS(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	c, ok := l.ByCAS(" 107-44-8 ")
	require.True(t, ok)
	assert.Equal(t, "sarin", c.Name)
	assert.Equal(t, "CWC 1", c.Schedule)

	_, ok = l.ByCAS("64-17-5")
	assert.False(t, ok)
}

func TestMostSimilar(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	c, sim, err := l.MostSimilar("CC(C)OP(C)(=O)F")
	require.NoError(t, err)
	assert.Equal(t, "sarin", c.Name)
	assert.Equal(t, 1.0, sim)

	_, sim, err = l.MostSimilar("CCCCCCCCCCCCCCCC")
	require.NoError(t, err)
	assert.Less(t, sim, 0.35)

	_, _, err = l.MostSimilar("C(")
	assert.ErrorIs(t, err, smiles.ErrInvalidSMILES)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("name,cas\nx,1"))
	assert.Error(t, err)

	l, err := Parse([]byte("name,cas,smiles,schedule\nbroken,1-11-1,C(,X\n"))
	require.NoError(t, err)
	_, _, err = l.MostSimilar("CCO")
	assert.Error(t, err)
}
