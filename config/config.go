package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultPhotosSubDir     = "photos"
	DefaultThumbnailsSubDir = "thumbnails"
	DefaultExportsSubDir    = "exports"
)

const (
	defaultExportQueueSize  = 50
	defaultNumExportWorkers = 2
	defaultThumbnailMaxSize = 300
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for stored assets (photos, thumbs, CSVs)
	PhotosPath       string // full-calculated path for person photos
	ThumbnailsPath   string // full-calculated path for photo thumbnails
	ExportsPath      string // full-calculated path for generated CSV exports

	// thumbnail generation settings
	ThumbnailMaxSize int

	// export worker settings
	ExportQueueSize  int
	NumExportWorkers int

	// auth
	JWTSecret string

	Port string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "candidates.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	photosSubDir := getEnvOrDefault("PHOTOS_SUBDIR", DefaultPhotosSubDir)
	absPhotosPath := filepath.Join(absMediaStorage, photosSubDir)

	thumbSubDir := getEnvOrDefault("THUMBNAILS_SUBDIR", DefaultThumbnailsSubDir)
	absThumbnailsPath := filepath.Join(absMediaStorage, thumbSubDir)

	exportsSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)
	absExportsPath := filepath.Join(absMediaStorage, exportsSubDir)

	thumbMaxSize := getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize)

	queueSize := getEnvIntOrDefault("EXPORT_QUEUE_SIZE", defaultExportQueueSize)
	numWorkers := getEnvIntOrDefault("NUM_EXPORT_WORKERS", defaultNumExportWorkers)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:     dbPath,
		MediaStoragePath: absMediaStorage,
		PhotosPath:       absPhotosPath,
		ThumbnailsPath:   absThumbnailsPath,
		ExportsPath:      absExportsPath,
		ThumbnailMaxSize: thumbMaxSize,
		ExportQueueSize:  queueSize,
		NumExportWorkers: numWorkers,
		JWTSecret:        jwtSecret,
		Port:             getEnvOrDefault("PORT", "8080"),
	}

	return cfg, nil
}
