package media

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store is the filesystem surface the photo pipeline and the CSV export
// worker write through. Paths accepted and returned are relative to the
// storage root and forward-slashed; they are what gets persisted on image and
// election rows and served back by the asset routes.
type Store interface {
	// Save writes data under the asset type's directory as name, which may
	// contain forward-slash subdirectories. It returns the root-relative
	// path. Saving to a name that already exists leaves the existing file
	// untouched, which makes content-addressed names free to re-save.
	Save(assetType AssetType, name string, data io.Reader) (string, error)
	Open(relativePath string) (io.ReadCloser, os.FileInfo, error)
	Remove(relativePath string) error
	// AbsolutePath maps a stored relative path back to an absolute
	// filesystem path confined to the storage root.
	AbsolutePath(relativePath string) (string, error)
}

// LocalStorage keeps every asset below one root directory with one
// subdirectory per asset type, all created up front; an asset type without a
// configured subdirectory is a wiring error, not a fallback. Photos and
// thumbnails are stored under content-addressed names, so writes go through
// a temporary file and a rename to keep half-written bytes out of an
// addressed path.
type LocalStorage struct {
	root string
	dirs map[AssetType]string
}

var _ Store = (*LocalStorage)(nil)

func NewLocalStorage(root string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid storage root %q: %w", root, err)
	}
	dirs := make(map[AssetType]string, len(subDirs))
	for assetType, subDir := range subDirs {
		dir := filepath.Join(absRoot, subDir)
		if !strings.HasPrefix(dir, absRoot+string(os.PathSeparator)) {
			return nil, fmt.Errorf("subdirectory %q for asset type %q escapes the storage root", subDir, assetType)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory %q: %w", assetType, dir, err)
		}
		dirs[assetType] = dir
	}
	log.Printf("media: storage root %s", absRoot)
	return &LocalStorage{root: absRoot, dirs: dirs}, nil
}

func (ls *LocalStorage) dir(assetType AssetType) (string, error) {
	dir, ok := ls.dirs[assetType]
	if !ok {
		return "", fmt.Errorf("no directory configured for asset type %q", assetType)
	}
	return dir, nil
}

func (ls *LocalStorage) Save(assetType AssetType, name string, data io.Reader) (string, error) {
	dir, err := ls.dir(assetType)
	if err != nil {
		return "", err
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || path.IsAbs(cleaned) || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	fullPath := filepath.Join(dir, filepath.FromSlash(cleaned))

	relPath, err := filepath.Rel(ls.root, fullPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("asset name %q escapes the storage root", name)
	}
	relPath = filepath.ToSlash(relPath)

	if _, err := os.Stat(fullPath); err == nil {
		// an existing content-addressed file already holds these bytes.
		// Drain the reader anyway so pipe-backed writers are not stalled.
		_, _ = io.Copy(io.Discard, data)
		return relPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %q: %w", relPath, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for %q: %w", relPath, err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write asset %q: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finish writing asset %q: %w", relPath, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move asset into place at %q: %w", relPath, err)
	}
	log.Printf("media: stored %s", relPath)
	return relPath, nil
}

func (ls *LocalStorage) Open(relativePath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := ls.AbsolutePath(relativePath)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open asset %q: %w", relativePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset %q: %w", relativePath, err)
	}
	return file, info, nil
}

func (ls *LocalStorage) Remove(relativePath string) error {
	fullPath, err := ls.AbsolutePath(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove asset %q: %w", relativePath, err)
	}
	return nil
}

func (ls *LocalStorage) AbsolutePath(relativePath string) (string, error) {
	// rooted Clean flattens any ".." segments before the join, so the
	// result cannot climb out of the storage root
	fullPath := filepath.Join(ls.root, filepath.FromSlash(path.Clean("/"+relativePath)))
	if fullPath == ls.root {
		return "", fmt.Errorf("invalid asset path %q", relativePath)
	}
	return fullPath, nil
}
