//go:build !windows

package rollbar

import (
	"bytes"
	"runtime"

	"golang.org/x/sys/unix"
)

func osDescription() string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return runtime.GOOS
	}

	sysname := string(name.Sysname[:clen(name.Sysname[:])])
	release := string(name.Release[:clen(name.Release[:])])
	return sysname + " " + release
}

func clen(b []byte) int {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return i
	}
	return len(b)
}
