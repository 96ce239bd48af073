package dupsample

import (
	"time"

	"golang.org/x/sys/unix"
)

// fileTimes holds the access and modification timestamps of a path
type fileTimes struct {
	atime unix.Timespec
	mtime unix.Timespec
}

// Atime returns the access time
func (ft fileTimes) Atime() time.Time {
	return time.Unix(ft.atime.Unix())
}

// Mtime returns the modification time
func (ft fileTimes) Mtime() time.Time {
	return time.Unix(ft.mtime.Unix())
}

// statTimes reads the timestamps of the file a later open of path would see
func statTimes(path string) (fileTimes, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileTimes{}, err
	}
	return fileTimes{atime: st.Atim, mtime: st.Mtim}, nil
}

// canRestoreTimes reports whether the caller has write permission on path,
// which utimensat with explicit times requires unless the caller owns the file.
func canRestoreTimes(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// restoreTimes puts back timestamps captured by statTimes. The returned error
// is for callers that care; the digest engine discards it.
func restoreTimes(path string, ft fileTimes) error {
	return unix.UtimesNano(path, []unix.Timespec{ft.atime, ft.mtime})
}
