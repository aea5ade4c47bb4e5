//go:build darwin || freebsd || netbsd || openbsd || dragonfly || linux

package runner

import "golang.org/x/sys/unix"

// fixOutputProcessing sets OPOST again after term.MakeRaw cleared it.
func fixOutputProcessing(fd int) {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}
	t.Oflag |= unix.OPOST
	_ = unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}
