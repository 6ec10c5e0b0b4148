//go:build windows

package metadata

import (
	"os"
	"syscall"
	"time"
)

// statTimes returns the creation and access times of a file, truncated to
// whole seconds. On Windows the "c_time" meta means creation time.
func statTimes(info os.FileInfo) (ctime, atime time.Time) {
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds()).Truncate(time.Second),
			time.Unix(0, st.LastAccessTime.Nanoseconds()).Truncate(time.Second)
	}
	m := info.ModTime().Truncate(time.Second)
	return m, m
}
