package jobs

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskHeadroom reports the free bytes and percent used of the filesystem
// containing path.
func DiskHeadroom(path string) (freeBytes uint64, usedPercent float64, err error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return usage.Free, usage.UsedPercent, nil
}

// ShouldThrottleScan reports whether ScanFolder's batch producer should
// slow down because the destination filesystem is critically low on space;
// a scan that's about to hand off hundreds of paths for metadata probing
// and list-preview decode benefits from not doing so onto a nearly-full
// disk, since temp files for export/undo `.bak` writes share that same
// volume.
func ShouldThrottleScan(root string, minFreeBytes uint64) bool {
	free, _, err := DiskHeadroom(root)
	if err != nil {
		return false
	}
	return free < minFreeBytes
}
