package diskmanager

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/errors"
)

// DiskSpaceInfo describes the filesystem holding a path
type DiskSpaceInfo struct {
	TotalBytes  uint64
	UsedBytes   uint64
	FreeBytes   uint64
	UsedPercent float64
}

// GetDetailedDiskUsage returns usage of the filesystem containing path
func GetDetailedDiskUsage(path string) (DiskSpaceInfo, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return DiskSpaceInfo{}, errors.New(err).
			Component("diskmanager").
			Category(errors.CategoryDiskUsage).
			Context("operation", "disk_usage").
			Build()
	}
	return DiskSpaceInfo{
		TotalBytes:  usage.Total,
		UsedBytes:   usage.Used,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}
