package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededConfig writes a config pointing at a sqlite file that already holds
// versions of url, one per title.
func seededConfig(t *testing.T, url string, titles ...string) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sites.db")

	storeConfig := datastore.DefaultStoreConfig()
	storeConfig.Path = dbPath
	store, err := datastore.NewStore(context.Background(), storeConfig, zerolog.Nop())
	require.NoError(t, err)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range titles {
		md := models.ScrapedMetadata{Basic: &models.BasicMetadata{Title: title}}
		_, err := store.SaveMetadata(context.Background(), url, md, at.Add(time.Duration(i)*time.Minute), models.PerformanceStats{HTTPStatus: 200})
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	path := filepath.Join(dir, "config.yaml")
	content := "log:\n  log_level: error\nstorage:\n  enabled: true\n  driver: sqlite\n  sqlite_path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestSiteShowCmd_WithHistory(t *testing.T) {
	configPath := seededConfig(t, "https://example.com/", "first", "second")

	out, err := runRoot(t, "--config", configPath, "site", "show", "www.example.com", "--history")
	require.NoError(t, err)

	var resp api.SiteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "https://example.com/", resp.URL)
	assert.Equal(t, "second", resp.Data.Metadata.Basic.Title)
	require.Len(t, resp.History, 1)
	assert.Equal(t, 1, resp.History[0].Version)
}

func TestSiteShowCmd_UnknownSite(t *testing.T) {
	configPath := seededConfig(t, "https://example.com/", "first")

	_, err := runRoot(t, "--config", configPath, "site", "show", "other.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no metadata stored")
}

func TestSiteClassifyCmd(t *testing.T) {
	configPath := seededConfig(t, "https://example.com/", "first")

	_, err := runRoot(t, "--config", configPath, "site", "classify", "example.com", "--industry", "Media", "--country", "FR")
	require.NoError(t, err)

	cfgDir := filepath.Dir(configPath)
	storeConfig := datastore.DefaultStoreConfig()
	storeConfig.Path = filepath.Join(cfgDir, "sites.db")
	store, err := datastore.NewStore(context.Background(), storeConfig, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	values, err := store.GetExistingClassificationValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Media"}, values.Industries)
	assert.Equal(t, []string{"FR"}, values.Countries)
}

func TestSiteCmd_StoreDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  enabled: false\n"), 0o644))

	_, err := runRoot(t, "--config", path, "site", "show", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata store is disabled")
}

func TestArchiveCmd_FailedOnly(t *testing.T) {
	archive, err := datastore.NewParquetArchive(datastore.ArchiveConfig{Dir: t.TempDir(), Compression: "snappy"}, zerolog.Nop())
	require.NoError(t, err)
	path, err := archive.WriteResults(context.Background(), []models.ScrapeResult{
		{Success: true, URL: "https://ok.example.com/"},
		models.FailedResult("https://bad.example.com/", models.NewScrapeError(models.ErrTimeout, "https://bad.example.com/", "upstream timed out", nil)),
	})
	require.NoError(t, err)

	out, err := runRoot(t, "archive", path, "--failed")
	require.NoError(t, err)

	var rows []datastore.ArchiveRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "https://bad.example.com/", rows[0].URL)
	assert.Equal(t, string(models.ErrTimeout), rows[0].ErrorCode)
}
