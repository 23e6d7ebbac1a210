package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "logging", []string{"logging"}, false},
		{"two segments", "logging.level", []string{"logging", "level"}, false},
		{"empty", "", nil, true},
		{"empty segment", "logging..level", nil, true},
		{"leading dot", ".logging", nil, true},
		{"trailing dot", "logging.", nil, true},
		{"blocked __proto__", "foo.__proto__.bar", nil, true},
		{"blocked prototype", "prototype.x", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{
		"logging": map[string]any{
			"level": "info",
		},
		"simple": "value",
	}

	val, ok := GetValueAtPath(root, []string{"logging", "level"})
	assert.True(t, ok)
	assert.Equal(t, "info", val)

	_, ok = GetValueAtPath(root, []string{"logging", "missing"})
	assert.False(t, ok)

	_, ok = GetValueAtPath(root, []string{"simple", "deeper"})
	assert.False(t, ok, "scalar cannot be traversed")

	SetValueAtPath(root, []string{"logging", "level"}, "debug")
	val, _ = GetValueAtPath(root, []string{"logging", "level"})
	assert.Equal(t, "debug", val)

	SetValueAtPath(root, []string{"session", "store"}, "memory")
	val, ok = GetValueAtPath(root, []string{"session", "store"})
	assert.True(t, ok)
	assert.Equal(t, "memory", val)

	SetValueAtPath(root, []string{"simple", "nested"}, 1)
	val, ok = GetValueAtPath(root, []string{"simple", "nested"})
	assert.True(t, ok, "scalar replaced by a map")
	assert.Equal(t, 1, val)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"logging": map[string]any{
			"level": "info",
			"file":  "/tmp/x.log",
		},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"logging", "level"}))
	_, exists := GetValueAtPath(root, []string{"logging", "level"})
	assert.False(t, exists)

	val, exists := GetValueAtPath(root, []string{"logging", "file"})
	assert.True(t, exists)
	assert.Equal(t, "/tmp/x.log", val)

	assert.False(t, UnsetValueAtPath(root, []string{"logging", "nonexistent"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
}

func TestResolvePathsCustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CHEMKIT_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(tmp, "data", "chemkit.db"), paths.Database())
}

func TestResolvePathsDefaultHome(t *testing.T) {
	t.Setenv("CHEMKIT_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chemkit"), paths.Base)
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("CHEMKIT_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Logs, paths.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
