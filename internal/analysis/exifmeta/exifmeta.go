// Package exifmeta reads the EXIF block of uploaded job photos. Capture
// time helps ops judge how current a photo is, and the location flag
// records that GPS data was present without ever storing coordinates.
package exifmeta

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata is what intake keeps from a photo's EXIF block.
type Metadata struct {
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
	HasLocation bool       `json:"hasLocation"`
	CameraModel string     `json:"cameraModel,omitempty"`
}

// Inspect reads the EXIF block from raw image bytes. Photos without one
// (screenshots, stripped uploads, PNGs) yield an empty Metadata, not an
// error.
func Inspect(data []byte) Metadata {
	decoded, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Metadata{}
	}

	var meta Metadata
	if capturedAt, err := decoded.DateTime(); err == nil {
		meta.CapturedAt = &capturedAt
	}
	if lat, long, err := decoded.LatLong(); err == nil && (lat != 0 || long != 0) {
		meta.HasLocation = true
	}
	if tag, err := decoded.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			meta.CameraModel = model
		}
	}

	return meta
}
