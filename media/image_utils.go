package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

var supportedImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsRasterImage checks if the filename has a common raster image extension
func IsRasterImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// val string might have null chars at the end
	val := strings.TrimRight(tag.String(), "\x00")
	if val == "" {
		return nil
	}
	return &val
}

// ExtractPhotoMetadata reads dimensions and the EXIF fields we care about from
// an uploaded photo. missing EXIF data is not an error, we just record less.
func ExtractPhotoMetadata(raw []byte) *PhotoMetadata {
	meta := &PhotoMetadata{}

	config, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err == nil {
		w, h := config.Width, config.Height
		meta.Width = &w
		meta.Height = &h
		log.Printf("media: Decoded photo dimensions (format: %s): %dx%d", format, w, h)
	} else {
		log.Printf("media: Warning - Could not decode config for photo dimensions: %v", err)
	}

	exifData, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		// not necessarily a problem, the file might just lack EXIF data
		log.Printf("media: No EXIF data found in uploaded photo: %v", err)
		return meta
	}

	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)

	dt, err := exifData.DateTime()
	if err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	}

	return meta
}
