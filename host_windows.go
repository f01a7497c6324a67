//go:build windows

package rollbar

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

func osDescription() string {
	major, minor, build := windows.RtlGetNtVersionNumbers()
	return fmt.Sprintf("%s %d.%d.%d", runtime.GOOS, major, minor, build)
}
