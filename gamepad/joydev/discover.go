package joydev

import (
	"fmt"
	"path/filepath"
)

// Discover lists joystick nodes matching the glob, default
// /dev/input/js*.
func Discover(glob string) ([]string, error) {
	if glob == "" {
		glob = "/dev/input/js*"
	}
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("joydev: bad device glob %q: %w", glob, err)
	}
	return paths, nil
}
