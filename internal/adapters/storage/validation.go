package storage

import (
	"fmt"
	"sort"
	"strings"
)

// AllowedContentTypes lists the image MIME types the vision model can
// read. Everything else is rejected at intake.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, s.maxFileSize)
	}
	return nil
}

// GetAllowedContentTypes returns a sorted list of allowed content types.
// Useful for rejection messages and frontend validation.
func GetAllowedContentTypes() []string {
	types := make([]string, 0, len(AllowedContentTypes))
	for ct := range AllowedContentTypes {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}
