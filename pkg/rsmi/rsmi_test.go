package rsmi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsyrjaos/gorsmi/pkg/dl"
)

func TestInitWithMissingLibrary(t *testing.T) {
	err := InitWithPath("/nonexistent/librocm_smi64.so", InitFlagAllGPUs)
	require.Error(t, err)

	var loadErr *dl.LibraryLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "/nonexistent/librocm_smi64.so", loadErr.Name)
	assert.Nil(t, library)
}

// Loading a library that opens fine but lacks the SMI symbols must fail
// naming the first unresolved symbol and leave nothing callable.
func TestInitWithWrongLibrary(t *testing.T) {
	err := InitWithPath("libc.so.6", 0)
	require.Error(t, err)

	var symErr *dl.SymbolResolutionError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, "rsmi_init", symErr.Symbol)
	assert.Equal(t, "libc.so.6", symErr.Library)
	assert.Nil(t, library)
}

func TestShutdownBeforeInit(t *testing.T) {
	require.Nil(t, library)
	assert.ErrorIs(t, Shutdown(), ErrUninitialized)
}

func TestRequiredSymbolsUnique(t *testing.T) {
	seen := make(map[string]bool, len(requiredSymbols))
	for _, sym := range requiredSymbols {
		assert.False(t, seen[sym], "symbol %s declared twice", sym)
		seen[sym] = true
	}
	assert.Len(t, requiredSymbols, 40)
}
