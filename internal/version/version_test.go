package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stamp sets the build variables for one test.
func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
	Version, Commit, Date = version, commit, date
}

func TestInfo_Unstamped(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "chemkit dev (commit: unknown, built: unknown, "+runtime.GOOS+"/"+runtime.GOARCH+")", Info())
}

func TestInfo_Stamped(t *testing.T) {
	stamp(t, "0.4.0", "9f2c1e07b55d", "2026-10-01")

	info := Info()
	assert.Contains(t, info, "chemkit 0.4.0")
	assert.Contains(t, info, "commit: 9f2c1e0")
	assert.NotContains(t, info, "9f2c1e07b55d")
	assert.Contains(t, info, "built: 2026-10-01")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "chemkit/dev (+https://github.com/soyeahso/chemkit)", UserAgent())

	stamp(t, "0.4.0", "x", "y")
	assert.Equal(t, "chemkit/0.4.0 (+https://github.com/soyeahso/chemkit)", UserAgent())
}

func TestShort(t *testing.T) {
	for in, want := range map[string]string{
		"":         "",
		"abc":      "abc",
		"1234567":  "1234567",
		"12345678": "1234567",
	} {
		assert.Equal(t, want, short(in), in)
	}
}
