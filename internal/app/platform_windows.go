//go:build windows

package app

import "os/exec"

// platformOpen hands the file to the shell's default handler. The empty
// argument is the window title 'start' expects before a quoted path.
func platformOpen(path string) error {
	return exec.Command("cmd", "/c", "start", "", path).Start()
}
