package testutils

import (
	"os"
	"time"
)

func IsCI() bool {
	return os.Getenv("CI") != ""
}

// FlushTimeout is the wait granted to delivery workers in tests.
func FlushTimeout() time.Duration {
	if IsCI() {
		// CI machines are overloaded, beacon workers need longer.
		return 5 * time.Second
	}

	return time.Second
}
