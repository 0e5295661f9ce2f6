//go:build darwin

package engine

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func atimeFromStat(stat *syscall.Stat_t) time.Time {
	return time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
}

// Darwin lacks AT_EMPTY_PATH, so timestamps are always set by path.
func setTimes(_ int, fdPath string, atime, mtime time.Time) error {
	times := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, fdPath, times, 0)
}
