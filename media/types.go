// media/types.go
package media

type AssetType string

const (
	AssetTypePhoto     AssetType = "photo"
	AssetTypeThumbnail AssetType = "thumbnail"
	AssetTypeExport    AssetType = "export"
)

// PhotoMetadata holds the subset of EXIF data we keep for candidate photos
type PhotoMetadata struct {
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
	TakenAt     *int64  `json:"taken_at,omitempty"`
}
