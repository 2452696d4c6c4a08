// Package dl wraps the platform dynamic loader. A DynamicLibrary is an
// explicitly owned handle: Open acquires it, Close releases it, and every
// resolved address is invalid after Close. Open and Close must not run
// concurrently with each other or with calls through the library; the
// resolved table is read-only in between and safe to share across
// goroutines.
package dl

// #cgo CFLAGS: -D_GNU_SOURCE
// #cgo LDFLAGS: -ldl
// #include <dlfcn.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"unsafe"
)

const (
	RTLD_LAZY     = C.RTLD_LAZY
	RTLD_NOW      = C.RTLD_NOW
	RTLD_GLOBAL   = C.RTLD_GLOBAL
	RTLD_LOCAL    = C.RTLD_LOCAL
	RTLD_NODELETE = C.RTLD_NODELETE
	RTLD_NOLOAD   = C.RTLD_NOLOAD
)

// LibraryLoadError reports that a shared library could not be located or
// opened.
type LibraryLoadError struct {
	Name   string
	Reason string
}

func (e *LibraryLoadError) Error() string {
	return fmt.Sprintf("could not load library %q: %s", e.Name, e.Reason)
}

// SymbolResolutionError reports that a specific named symbol is absent from
// a loaded library, typically version skew between the bound header and the
// runtime library.
type SymbolResolutionError struct {
	Library string
	Symbol  string
}

func (e *SymbolResolutionError) Error() string {
	return fmt.Sprintf("could not resolve symbol %q in library %q", e.Symbol, e.Library)
}

// DynamicLibrary is a load/resolve/unload lifecycle object over dlopen(3).
type DynamicLibrary struct {
	Name   string
	Flags  int
	handle unsafe.Pointer
}

// New records the library name and dlopen flags without touching the
// loader. Call Open to acquire the handle.
func New(name string, flags int) *DynamicLibrary {
	return &DynamicLibrary{
		Name:  name,
		Flags: flags,
	}
}

// Open loads the shared library. The name is resolved by the platform
// loader (search path rules of dlopen), so it may be a bare soname or an
// absolute path.
func (dl *DynamicLibrary) Open() error {
	name := C.CString(dl.Name)
	defer C.free(unsafe.Pointer(name))

	C.dlerror() // clear any stale error
	handle := C.dlopen(name, C.int(dl.Flags))
	if handle == nil {
		return &LibraryLoadError{Name: dl.Name, Reason: lastError()}
	}
	dl.handle = handle
	return nil
}

// Lookup checks that the named symbol resolves in the open library. The
// address itself is not returned; callers invoke the symbol through their
// own declarations after the library is loaded with RTLD_GLOBAL.
func (dl *DynamicLibrary) Lookup(symbol string) error {
	sym := C.CString(symbol)
	defer C.free(unsafe.Pointer(sym))

	C.dlerror()
	C.dlsym(dl.handle, sym)
	if err := C.dlerror(); err != nil {
		return &SymbolResolutionError{Library: dl.Name, Symbol: symbol}
	}
	return nil
}

// Close releases the library handle. Addresses resolved from this library
// are invalid afterwards; calling through them is the caller's bug, not a
// detectable condition.
func (dl *DynamicLibrary) Close() error {
	if dl.handle == nil {
		return nil
	}
	C.dlerror()
	if C.dlclose(dl.handle) != 0 {
		return fmt.Errorf("could not close library %q: %s", dl.Name, lastError())
	}
	dl.handle = nil
	return nil
}

func lastError() string {
	msg := C.dlerror()
	if msg == nil {
		return "unknown error"
	}
	return C.GoString(msg)
}
