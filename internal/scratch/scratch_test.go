package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	assert := assert_.New(t)
	require := require_.New(t)
	base := filepath.Join(t.TempDir(), "not", "yet")

	d, err := New(WithBaseDir(base), WithPattern("cookies-*"))
	require.NoError(err)
	assert.Equal(base, filepath.Dir(d.Path()))
	assert.True(strings.HasPrefix(filepath.Base(d.Path()), "cookies-"))
	require.NoError(os.WriteFile(filepath.Join(d.Path(), "cookies.txt"), []byte("data"), 0600))

	d.Close()
	_, err = os.Stat(d.Path())
	assert.True(os.IsNotExist(err), "scratch dir should be removed")
	// Closing again is harmless
	d.Close()
}

func TestNew_Defaults(t *testing.T) {
	assert := assert_.New(t)
	d, err := New()
	if !assert.NoError(err) {
		return
	}
	defer d.Close()
	assert.Equal(filepath.Clean(os.TempDir()), filepath.Dir(d.Path()))
	assert.True(strings.HasPrefix(filepath.Base(d.Path()), "media-fetcher-"))
}
