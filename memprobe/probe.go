// Package memprobe reports currently available system memory.
package memprobe

import (
	"errors"

	"github.com/prometheus/procfs"
)

var errNoFields = errors.New("memprobe: meminfo reports no availability fields")

// Available returns the number of bytes of memory currently available to
// the system, as estimated by the kernel. It reads MemAvailable from
// /proc/meminfo, falling back to MemFree on kernels that predate it.
//
// The call is synchronous and cheap enough to run under a cache lock.
// Callers that evict on memory pressure should treat an error as "memory
// available" so a broken probe fails open instead of wedging the cache.
func Available() (uint64, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, err
	}
	mi, err := fs.Meminfo()
	if err != nil {
		return 0, err
	}
	switch {
	case mi.MemAvailable != nil:
		return *mi.MemAvailable * 1024, nil
	case mi.MemFree != nil:
		return *mi.MemFree * 1024, nil
	}
	return 0, errNoFields
}
