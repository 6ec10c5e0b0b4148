//go:build !linux && !darwin && !windows

package metadata

import (
	"os"
	"time"
)

// statTimes falls back to the modification time on platforms without a
// known stat payload.
func statTimes(info os.FileInfo) (ctime, atime time.Time) {
	m := info.ModTime().Truncate(time.Second)
	return m, m
}
