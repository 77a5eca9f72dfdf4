package helper

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	maxPhotoUploadSize = 5 * 1024 * 1024
	photoMaxDim        = 512
	photoQuality       = 80
)

// ConvertPhotoToWebPDataURL reads an uploaded profile photo, bounds it to
// photoMaxDim (keep-aspect) and re-encodes as WebP, returned as a data URL
// ready to store on the student row.
func ConvertPhotoToWebPDataURL(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > maxPhotoUploadSize {
		return "", fmt.Errorf("photo exceeds %d bytes", maxPhotoUploadSize)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer src.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, src); err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("unsupported image format: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > photoMaxDim || b.Dy() > photoMaxDim {
		img = imaging.Fit(img, photoMaxDim, photoMaxDim, imaging.Lanczos)
	}

	out := new(bytes.Buffer)
	if err := webp.Encode(out, img, &webp.Options{Quality: photoQuality}); err != nil {
		return "", fmt.Errorf("webp encode failed: %w", err)
	}

	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(out.Bytes()), nil
}
