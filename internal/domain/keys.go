package domain

import (
	"path"
	"strings"
)

// DeriveQualityKey returns the storage key for a quality rendition of a
// video object: the quality suffix is inserted before the extension and
// the container is always mp4 ("videos/abc.mov", 720p -> "videos/abc_720p.mp4").
func DeriveQualityKey(baseKey string, q Quality) string {
	return stripExt(baseKey) + "_" + string(q) + ".mp4"
}

// DeriveThumbnailKey returns the storage key for a lecture thumbnail
// derived from its video key.
func DeriveThumbnailKey(baseKey string) string {
	return stripExt(baseKey) + "_thumb.webp"
}

func stripExt(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}
