package services

import (
	"github.com/isdelr/filevault-be/internal/models"
	"github.com/shirou/gopsutil/v3/disk"
)

// SystemServiceProvider defines the interface for host-level statistics.
type SystemServiceProvider interface {
	GetStorageStats() (models.StorageStats, error)
}

// SystemService reports on the volume that holds user files.
type SystemService struct {
	filesRoot string
}

// NewSystemService creates a new SystemService.
func NewSystemService(filesRoot string) *SystemService {
	return &SystemService{filesRoot: filesRoot}
}

// GetStorageStats returns usage of the filesystem containing the files root.
func (s *SystemService) GetStorageStats() (models.StorageStats, error) {
	usage, err := disk.Usage(s.filesRoot)
	if err != nil {
		return models.StorageStats{}, ioFailure("read disk usage", err)
	}
	return models.StorageStats{
		Path:        usage.Path,
		Total:       usage.Total,
		Used:        usage.Used,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}
