package exifmeta

import "testing"

// Most consumer uploads arrive with the EXIF block stripped by the
// browser or messaging app. Inspect must treat those as empty, never
// as a failure.
func TestInspectToleratesImagesWithoutEXIF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"not an image at all", []byte("zeker geen foto")},
		{"png header", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
		{"bare jpeg markers", []byte{0xFF, 0xD8, 0xFF, 0xD9}},
	}

	for _, tc := range tests {
		meta := Inspect(tc.data)
		if meta.CapturedAt != nil {
			t.Errorf("%s: expected no capture time, got %v", tc.name, meta.CapturedAt)
		}
		if meta.HasLocation {
			t.Errorf("%s: expected no location flag", tc.name)
		}
		if meta.CameraModel != "" {
			t.Errorf("%s: expected no camera model, got %q", tc.name, meta.CameraModel)
		}
	}
}
