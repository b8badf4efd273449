package media

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Image is an encoded raster payload (PNG, JPEG, WebP).
type Image struct {
	MIMEType string
	Data     []byte
}

// NewImage wraps raw bytes, sniffing the MIME type when mime is empty.
func NewImage(data []byte, mime string) *Image {
	if strings.TrimSpace(mime) == "" {
		mime = SniffMIME(data)
	}
	return &Image{MIMEType: mime, Data: data}
}

// ReadImage loads an image file from disk.
func ReadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read image %s: empty file", path)
	}
	return NewImage(data, ""), nil
}

// Save writes the image to dir as base plus the MIME extension and
// returns the path.
func (i *Image) Save(dir, base string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, base+i.Ext())
	if err := os.WriteFile(path, i.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", path, err)
	}
	return path, nil
}

// Base64 returns the standard base64 encoding of the payload.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the payload as a data: URI.
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// Ext returns a file extension matching the MIME type.
func (i *Image) Ext() string {
	switch i.MIMEType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

// SniffMIME detects JPEG/PNG by magic bytes, deferring to
// http.DetectContentType for everything else.
func SniffMIME(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) > 0 {
		return http.DetectContentType(b)
	}
	return "application/octet-stream"
}

// DecodeBase64 decodes a base64 payload, accepting data: URIs and the
// URL-safe alphabet.
func DecodeBase64(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	var mime string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				mime = meta[:semi]
			} else {
				mime = meta
			}
			s = s[idx+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return NewImage(b, mime), nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return NewImage(b, mime), nil
}
