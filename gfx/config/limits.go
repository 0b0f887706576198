// Package config loads the resource limits that bound the graphics store's
// disk and RAM usage.
package config

import (
	"encoding/json"
	"log"
	"os"
)

// Limits holds the resource bounds the eviction engine enforces. All size
// fields are in bytes unless noted otherwise.
type Limits struct {
	// MaxSingleImageFileSize caps the on-disk size of any one frame's upload.
	MaxSingleImageFileSize int64 `json:"maxSingleImageFileSize"`
	// TotalFileCacheSize caps the sum of all frames' disk_size across all images.
	TotalFileCacheSize int64 `json:"totalFileCacheSize"`
	// MaxSingleImageRAMSize caps a single scaled pixmap buffer; decoded
	// bitmaps are not checked against it.
	MaxSingleImageRAMSize int64 `json:"maxSingleImageRAMSize"`
	// MaxTotalRAMSize caps the sum of decoded + scaled bitmap sizes.
	MaxTotalRAMSize int64 `json:"maxTotalRAMSize"`
	// MaxTotalPlacements caps the number of live placements across all images.
	MaxTotalPlacements int `json:"maxTotalPlacements"`
	// MaxTotalImages caps the number of live images.
	MaxTotalImages int `json:"maxTotalImages"`
	// ExcessToleranceRatio delays eviction until usage exceeds limit*(1+ratio).
	ExcessToleranceRatio float64 `json:"excessToleranceRatio"`
	// AnimationMinDelay is the floor, in milliseconds, for any computed redraw delay.
	AnimationMinDelay int `json:"animationMinDelay"`
}

// Default returns the limits used when no config file is present, chosen to
// be generous enough for interactive use without being unbounded.
func Default() *Limits {
	return &Limits{
		MaxSingleImageFileSize: 320 * 1024 * 1024,
		TotalFileCacheSize:     640 * 1024 * 1024,
		MaxSingleImageRAMSize:  320 * 1024 * 1024,
		MaxTotalRAMSize:        640 * 1024 * 1024,
		MaxTotalPlacements:     1024,
		MaxTotalImages:         512,
		ExcessToleranceRatio:   0.2,
		AnimationMinDelay:      50,
	}
}

// Load reads limits from path, overlaying them onto Default(). A missing file
// is not an error: the defaults are returned as-is, matching the tolerant
// behavior of the rest of the protocol front end.
func Load(path string) (*Limits, error) {
	lim := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("gfx/config: no limits file at %s, using defaults", path)
			return lim, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, lim); err != nil {
		return nil, err
	}

	log.Printf("gfx/config: loaded limits from %s", path)
	return lim, nil
}

// ToleratedBytes returns limit inflated by the tolerance ratio.
func (l *Limits) ToleratedBytes(limit int64) int64 {
	return int64(float64(limit) * (1 + l.ExcessToleranceRatio))
}

// ToleratedCount returns limit inflated by the tolerance ratio.
func (l *Limits) ToleratedCount(limit int) int {
	return int(float64(limit) * (1 + l.ExcessToleranceRatio))
}
