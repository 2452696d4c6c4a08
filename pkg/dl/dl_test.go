package dl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// libc is always resolvable on the linux hosts this package supports.
const testLibrary = "libc.so.6"

func TestOpenMissingLibrary(t *testing.T) {
	lib := New("/nonexistent/libgorsmi-test.so", RTLD_NOW)
	err := lib.Open()
	require.Error(t, err)

	var loadErr *LibraryLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "/nonexistent/libgorsmi-test.so", loadErr.Name)
	assert.NotEmpty(t, loadErr.Reason)
}

func TestOpenLookupClose(t *testing.T) {
	lib := New(testLibrary, RTLD_LAZY)
	require.NoError(t, lib.Open())
	defer func() {
		require.NoError(t, lib.Close())
	}()

	assert.NoError(t, lib.Lookup("strlen"))
	assert.NoError(t, lib.Lookup("malloc"))
}

func TestLookupMissingSymbol(t *testing.T) {
	lib := New(testLibrary, RTLD_LAZY)
	require.NoError(t, lib.Open())
	defer lib.Close()

	err := lib.Lookup("gorsmi_no_such_symbol")
	require.Error(t, err)

	var symErr *SymbolResolutionError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, "gorsmi_no_such_symbol", symErr.Symbol)
	assert.Equal(t, testLibrary, symErr.Library)
	assert.Contains(t, err.Error(), "gorsmi_no_such_symbol")
}

func TestCloseWithoutOpen(t *testing.T) {
	lib := New(testLibrary, RTLD_LAZY)
	assert.NoError(t, lib.Close())
}
