package domain

import (
	"math"
	"strconv"
	"strings"
)

const (
	MsgTitleRequired = "Title is required."
	MsgPriceRequired = "Price is required."
	MsgPriceInvalid  = "Price must be a valid non-negative number."
	MsgImageType     = "Image must be a PNG, JPEG, GIF or WEBP file."
	MsgImageTooLarge = "Image is too large."
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateTitle trims title and rejects it when empty.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", NewValidationError(MsgTitleRequired)
	}
	return t, nil
}

// ParsePrice trims raw and parses it as a finite non-negative decimal.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, NewValidationError(MsgPriceRequired)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, NewValidationError(MsgPriceInvalid)
	}
	return v, nil
}

// ValidateImage checks an attachment's declared type and size. A nil image is valid.
func ValidateImage(img *ImageFile, maxBytes int64) error {
	if img == nil {
		return nil
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(img.ContentType, ";", 2)[0]))
	if !allowedImageTypes[ct] {
		return NewValidationError(MsgImageType)
	}
	if maxBytes > 0 && int64(len(img.Data)) > maxBytes {
		return NewValidationError(MsgImageTooLarge)
	}
	return nil
}
