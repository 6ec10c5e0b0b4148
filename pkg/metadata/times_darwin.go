//go:build darwin

package metadata

import (
	"os"
	"syscall"
	"time"
)

// statTimes returns the change and access times of a file, truncated to
// whole seconds. Falls back to the modification time when the platform stat
// payload is unavailable (e.g. in-memory filesystems).
func statTimes(info os.FileInfo) (ctime, atime time.Time) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctimespec.Sec, 0), time.Unix(st.Atimespec.Sec, 0)
	}
	m := info.ModTime().Truncate(time.Second)
	return m, m
}
