package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// SysHealth represents real-time process and catalog health.
type SysHealth struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	AllocBytes     uint64 `json:"alloc_bytes"`
	AllocMB        uint64 `json:"alloc_mb"`
	SysMB          uint64 `json:"sys_mb"`
	NumGC          uint32 `json:"num_gc"`
	Goroutines     int    `json:"goroutines"`
	Recipes        int    `json:"recipes"`
	ActiveSessions int    `json:"active_sessions"`
	DataDiskSize   string `json:"data_disk_size,omitempty"`
}

// GetSysHealth collects real-time health data. dataPath is the directory of
// the file catalog and may be empty.
func GetSysHealth(started time.Time, recipes, sessions int, dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		Status:         "ok",
		Uptime:         time.Since(started).Truncate(time.Second).String(),
		AllocBytes:     m.Alloc,
		AllocMB:        m.Alloc / 1024 / 1024,
		SysMB:          m.Sys / 1024 / 1024,
		NumGC:          m.NumGC,
		Goroutines:     runtime.NumGoroutine(),
		Recipes:        recipes,
		ActiveSessions: sessions,
	}
	if dataPath != "" {
		h.DataDiskSize = calculateDirSize(dataPath)
	}
	return h
}

func calculateDirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return formatBytes(size)
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
