package workers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openelects/candidatesbackend/database"
	"github.com/openelects/candidatesbackend/media"
)

// a store whose Save fails without reading any of the data, like a full disk
type brokenStore struct{}

func (s *brokenStore) Save(media.AssetType, string, io.Reader) (string, error) {
	return "", errors.New("no space left on device")
}

func (s *brokenStore) Open(string) (io.ReadCloser, os.FileInfo, error) {
	return nil, nil, errors.New("not implemented")
}

func (s *brokenStore) Remove(string) error { return nil }

func (s *brokenStore) AbsolutePath(string) (string, error) {
	return "", errors.New("not implemented")
}

// generateCSV streams through an unbuffered pipe, so a store failure that
// never drains the pipe must still let the CSV goroutine and the caller
// finish.
func TestGenerateCSVReturnsWhenStoreFails(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrateModels(db))

	gen := &ExportGenerator{DB: sqlDB, Store: &brokenStore{}}

	done := make(chan error, 1)
	go func() {
		_, err := gen.generateCSV(ExportJob{ElectionID: 1, ElectionSlug: "parl.2015-05-07"})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Contains(t, err.Error(), "no space left on device")
	case <-time.After(5 * time.Second):
		t.Fatal("generateCSV did not return after the store failed")
	}
}
