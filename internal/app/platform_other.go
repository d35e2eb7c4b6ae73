//go:build !linux && !darwin && !windows

package app

import (
	"fmt"
	"runtime"
)

func platformOpen(path string) error {
	return fmt.Errorf("opening files is not supported on %s", runtime.GOOS)
}
