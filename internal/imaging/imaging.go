// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded lesson images before they reach
// object storage: size limit, sniffed content type and pixel dimensions.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"

	_ "golang.org/x/image/webp" // register WebP decoder

	"lessonpress/internal/apperr"
)

const (
	// MaxBytes is the largest accepted upload (5 MiB).
	MaxBytes = 5 << 20

	// MaxPixels caps decoded dimensions (40 megapixels).
	MaxPixels = 40_000_000
)

// allowedTypes maps accepted sniffed content types to the key extension.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Info describes a validated image.
type Info struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Inspect checks data in order: size first, then content type, then
// dimensions. Every failure is a validation error.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, apperr.Validation("No file provided.")
	}
	if len(data) > MaxBytes {
		return Info{}, apperr.Validation("File too large. Maximum size is 5 MB.")
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Info{}, apperr.Validation(fmt.Sprintf("File type %q is not allowed.", contentType))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, apperr.Validation("Image could not be decoded.")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return Info{}, apperr.Validation("Image dimensions are too large.")
	}

	return Info{ContentType: contentType, Ext: ext, Width: cfg.Width, Height: cfg.Height}, nil
}
