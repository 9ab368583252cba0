//go:build !darwin && !linux

package native

import "fmt"

// Load reports that libvlc cannot be opened on this platform.
func Load() (*API, error) {
	return nil, fmt.Errorf("%w: purego loader supports darwin and linux only", ErrNotLoaded)
}

// LoadedPath always returns "" on unsupported platforms.
func LoadedPath() string {
	return ""
}
