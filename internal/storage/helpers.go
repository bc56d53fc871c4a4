package storage

import (
	"math"
	"strconv"
	"strings"
)

// IsImageFile reports whether the MIME type denotes an image.
func IsImageFile(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count using base-1024 units with at most two
// decimal places, trailing zeros trimmed.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	exp := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if exp > len(sizeUnits)-1 {
		exp = len(sizeUnits) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(exp))
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[exp]
}
