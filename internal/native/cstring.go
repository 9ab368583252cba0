package native

import (
	"runtime"
	"unsafe"
)

// maxCString bounds GoString scans so a missing terminator cannot walk
// off into unmapped memory forever.
const maxCString = 1 << 20

// GoString copies a NUL-terminated C string into Go memory.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for length < maxCString {
		if *(*byte)(unsafe.Add(p, length)) == 0 {
			break
		}
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// CStrings is a char*[] argument built from Go memory. It must be kept
// alive with KeepAlive until the native call that reads it returns.
type CStrings struct {
	bufs [][]byte
	ptrs []uintptr
}

// NewCStrings copies ss into NUL-terminated buffers.
func NewCStrings(ss []string) *CStrings {
	c := &CStrings{
		bufs: make([][]byte, len(ss)),
		ptrs: make([]uintptr, len(ss)+1),
	}
	for i, s := range ss {
		b := make([]byte, len(s)+1)
		copy(b, s)
		c.bufs[i] = b
		c.ptrs[i] = uintptr(unsafe.Pointer(&b[0]))
	}
	return c
}

// Len returns the number of strings, excluding the trailing NULL.
func (c *CStrings) Len() int32 {
	return int32(len(c.bufs))
}

// Pointer returns the address of the first element, or 0 when empty.
func (c *CStrings) Pointer() uintptr {
	if len(c.bufs) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&c.ptrs[0]))
}

// KeepAlive pins the buffers until this point in the caller.
func (c *CStrings) KeepAlive() {
	runtime.KeepAlive(c.bufs)
	runtime.KeepAlive(c.ptrs)
}

// Strings reads back a char*[] of n entries. Native stand-ins use it to
// decode argv and option arrays.
func Strings(argv uintptr, n int32) []string {
	if argv == 0 || n <= 0 {
		return nil
	}
	ptrs := unsafe.Slice((*uintptr)(unsafe.Pointer(argv)), n)
	out := make([]string, n)
	for i, p := range ptrs {
		out[i] = GoString(p)
	}
	return out
}
