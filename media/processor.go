package media

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"path"

	"github.com/disintegration/imaging"
)

const (
	PhotoFileExtension = ".jpg"
	PhotoJpegQuality   = 90

	ThumbnailJpegQuality   = 90
	ThumbnailFileExtension = ".jpg"
)

// Processor normalizes uploaded candidate photos and produces thumbnails,
// writing both through a Store under content-addressed names.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// contentName addresses an encoded file by its md5: the first two hex digits
// fan the files out into subdirectories, then the full sum names the file.
// Identical bytes always land on the same path, so duplicate uploads collapse
// into one stored file.
func contentName(encoded []byte, extension string) (string, string) {
	sum := md5.Sum(encoded)
	sumHex := hex.EncodeToString(sum[:])
	return path.Join(sumHex[:2], sumHex+extension), sumHex
}

// SavePhoto decodes an uploaded candidate photo, re-encodes it as JPEG and
// stores it content-addressed. Returns the stored photo's relative path, the
// decoded image so callers can thumbnail it without a second decode, and the
// md5 sum recorded on the image row.
func (p *Processor) SavePhoto(fileData io.Reader) (string, image.Image, string, error) {
	raw, err := io.ReadAll(fileData)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to read uploaded photo: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to decode uploaded photo: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(PhotoJpegQuality)); err != nil {
		return "", nil, "", fmt.Errorf("failed to encode photo: %w", err)
	}

	name, sumHex := contentName(buf.Bytes(), PhotoFileExtension)
	savedRelPath, err := p.store.Save(AssetTypePhoto, name, &buf)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to save photo via store: %w", err)
	}

	log.Printf("processor: saved %s photo as %s", format, savedRelPath)
	return savedRelPath, img, sumHex, nil
}

// GenerateThumbnail creates a thumbnail whose longest side is at most maxSize
// and stores it content-addressed. Returns the thumbnail's relative path.
func (p *Processor) GenerateThumbnail(originalImg image.Image, maxSize int) (string, error) {
	origBounds := originalImg.Bounds()
	origWidth := origBounds.Dx()
	origHeight := origBounds.Dy()
	if origWidth <= 0 || origHeight <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", origWidth, origHeight)
	}

	var newWidth, newHeight int
	if origWidth > origHeight {
		if origWidth <= maxSize {
			newWidth, newHeight = origWidth, origHeight
		} else {
			newWidth = maxSize
			newHeight = int(math.Round(float64(origHeight) * (float64(maxSize) / float64(origWidth))))
		}
	} else {
		if origHeight <= maxSize {
			newWidth, newHeight = origWidth, origHeight
		} else {
			newHeight = maxSize
			newWidth = int(math.Round(float64(origWidth) * (float64(maxSize) / float64(origHeight))))
		}
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	thumb := imaging.Resize(originalImg, newWidth, newHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality)); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	name, _ := contentName(buf.Bytes(), ThumbnailFileExtension)
	savedRelPath, err := p.store.Save(AssetTypeThumbnail, name, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail via store: %w", err)
	}
	return savedRelPath, nil
}
