package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20 // 10 MB

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true,
	}

	mimeToExt = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	}
)

// IsImageName reports whether name has an accepted image extension and is
// not a hidden or temporary file.
func IsImageName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// ExtForMIME returns the file extension of an accepted image media type, or
// "" when mime is not one.
func ExtForMIME(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return mimeToExt[strings.TrimSpace(strings.ToLower(mime))]
}

// NewFilename returns a random file name with ext.
func NewFilename(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// CheckContent verifies that data is an image matching ext.
func CheckContent(data []byte, ext string) error {
	ext = strings.ToLower(ext)
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp, svg)", ext)
	}
	if len(data) == 0 {
		return fmt.Errorf("file is empty")
	}
	if len(data) > MaxImageSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", len(data), MaxImageSize)
	}

	if ext == ".svg" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG")
		}
		return nil
	}

	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]
	want := ext
	if want == ".jpeg" {
		want = ".jpg"
	}
	if got != want {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}

// DecodeDataURI parses a base64 data:[<mediatype>];base64,<data> URI and
// returns the bytes with the extension of its media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}
