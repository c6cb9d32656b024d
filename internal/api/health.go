package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
	"github.com/patrickmn/go-cache"

	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/diskmanager"
	"github.com/Akshitakasturia08/ai-voice-detection-api/internal/logger"
)

const (
	storageCacheTTL = 30 * time.Second
	storageCacheKey = "storage"
)

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status         string       `json:"status"`
	Version        string       `json:"version"`
	BuildDate      string       `json:"build_date"`
	Uptime         string       `json:"uptime"`
	UptimeSeconds  float64      `json:"uptime_seconds"`
	ClassifierMode string       `json:"classifier_mode"`
	Retention      string       `json:"retention"`
	Storage        *StorageInfo `json:"storage,omitempty"`
	Timestamp      string       `json:"timestamp"`
}

// StorageInfo summarizes the upload directory and the filesystem it lives on
type StorageInfo struct {
	Path        string  `json:"path"`
	Files       int     `json:"files"`
	UploadBytes int64   `json:"upload_bytes"`
	UploadSize  string  `json:"upload_size"`
	DiskFree    string  `json:"disk_free"`
	DiskTotal   string  `json:"disk_total"`
	UsedPercent float64 `json:"disk_used_percent"`
}

// healthReporter computes storage statistics at most once per TTL. Listing
// the upload directory is linear in its size so probes must not trigger it
// on every call.
type healthReporter struct {
	uploads   diskmanager.Store
	cache     *cache.Cache
	diskUsage func(path string) (diskmanager.DiskSpaceInfo, error)
}

func newHealthReporter(uploads diskmanager.Store) *healthReporter {
	return &healthReporter{
		uploads:   uploads,
		cache:     cache.New(storageCacheTTL, 2*storageCacheTTL),
		diskUsage: diskmanager.GetDetailedDiskUsage,
	}
}

// storage returns cached statistics, or nil when no upload store is wired or
// the directory cannot be read.
func (h *healthReporter) storage() *StorageInfo {
	if h.uploads == nil {
		return nil
	}
	if cached, found := h.cache.Get(storageCacheKey); found {
		if info, ok := cached.(*StorageInfo); ok {
			return info
		}
	}

	info, err := h.collect()
	if err != nil {
		GetLogger().Warn("failed to collect storage statistics", logger.Error(err))
		return nil
	}

	h.cache.Set(storageCacheKey, info, cache.DefaultExpiration)
	return info
}

func (h *healthReporter) collect() (*StorageInfo, error) {
	files, err := diskmanager.GetAudioFiles(h.uploads)
	if err != nil {
		return nil, err
	}

	var total int64
	for i := range files {
		total += files[i].Size
	}

	usage, err := h.diskUsage(h.uploads.BaseDir())
	if err != nil {
		return nil, err
	}

	return &StorageInfo{
		Path:        h.uploads.BaseDir(),
		Files:       len(files),
		UploadBytes: total,
		UploadSize:  bytes.Format(total),
		DiskFree:    bytes.Format(int64(usage.FreeBytes)),
		DiskTotal:   bytes.Format(int64(usage.TotalBytes)),
		UsedPercent: usage.UsedPercent,
	}, nil
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := s.uptime()

	retention := "disabled"
	if s.settings.Audio.Retention.Enabled {
		retention = s.settings.Audio.Retention.Policy
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		Version:        s.buildInfo.GetVersion(),
		BuildDate:      s.buildInfo.GetBuildDate(),
		Uptime:         uptime.String(),
		UptimeSeconds:  uptime.Seconds(),
		ClassifierMode: s.detector.ClassifierMode(),
		Retention:      retention,
		Storage:        s.health.storage(),
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}
