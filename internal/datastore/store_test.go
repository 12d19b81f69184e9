package datastore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	config := DefaultStoreConfig()
	config.Path = filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(context.Background(), config, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleMetadata(title string) models.ScrapedMetadata {
	return models.ScrapedMetadata{
		Basic:     &models.BasicMetadata{Title: title, Favicon: "https://example.com/favicon.ico"},
		OpenGraph: &models.OpenGraphMetadata{Description: "desc", Images: []string{"https://example.com/og.png"}},
	}
}

func TestStore_SaveMetadata_Versions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://www.example.com/page"
	perf := models.PerformanceStats{ResponseTime: 120, ContentLength: 2048, HTTPStatus: 200}
	scrapedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	saved, err := store.SaveMetadata(ctx, url, sampleMetadata("First"), scrapedAt, perf)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = store.SaveMetadata(ctx, url, sampleMetadata("Second"), scrapedAt.Add(time.Hour), perf)
	require.NoError(t, err)
	assert.True(t, saved)

	latest, err := store.LatestMetadata(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.True(t, latest.IsLatest)
	assert.Equal(t, "Second", latest.Metadata.Basic.Title)
	assert.Equal(t, int64(120), latest.ResponseTimeMs)
	assert.Equal(t, 200, latest.HTTPStatus)
	assert.Contains(t, latest.ChangeSummary, "basic")
	assert.True(t, latest.ScrapedAt.Equal(scrapedAt.Add(time.Hour)))

	versions, err := store.ListVersions(ctx, url)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
	assert.False(t, versions[1].IsLatest)
	assert.Equal(t, "initial version", versions[1].ChangeSummary)
}

func TestStore_SaveMetadata_IdempotentRetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/"

	for i := 0; i < 3; i++ {
		saved, err := store.SaveMetadata(ctx, url, sampleMetadata("Same"), time.Now(), models.PerformanceStats{})
		require.NoError(t, err)
		assert.True(t, saved)
	}

	versions, err := store.ListVersions(ctx, url)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestStore_SaveMetadata_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	url := "https://example.com/concurrent"

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.SaveMetadata(ctx, url, sampleMetadata(string(rune('A'+i))), time.Now(), models.PerformanceStats{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	versions, err := store.ListVersions(ctx, url)
	require.NoError(t, err)
	assert.Len(t, versions, 5)

	latestCount := 0
	for _, v := range versions {
		if v.IsLatest {
			latestCount++
		}
	}
	assert.Equal(t, 1, latestCount)
	assert.Zero(t, store.locks.size())
}

func TestStore_SaveMetadata_InvalidURL(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveMetadata(context.Background(), "not-a-url", sampleMetadata("x"), time.Now(), models.PerformanceStats{})
	assert.False(t, saved)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestStore_LatestMetadata_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LatestMetadata(context.Background(), "https://missing.example.com/")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_ClassificationValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, url := range []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"} {
		_, err := store.SaveMetadata(ctx, url, sampleMetadata(url), time.Now(), models.PerformanceStats{})
		require.NoError(t, err)
	}

	require.NoError(t, store.UpdateClassification(ctx, "https://a.example.com/", Classification{Industry: "Software", Country: "US", Language: "en"}))
	require.NoError(t, store.UpdateClassification(ctx, "https://b.example.com/", Classification{Industry: "Finance", Country: "US", CompanySize: "11-50"}))
	require.NoError(t, store.UpdateClassification(ctx, "https://c.example.com/", Classification{Industry: " ", Category: "Blog"}))

	values, err := store.GetExistingClassificationValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "Software"}, values.Industries)
	assert.Equal(t, []string{"Blog"}, values.Categories)
	assert.Equal(t, []string{"US"}, values.Countries)
	assert.Equal(t, []string{"en"}, values.Languages)
	assert.Equal(t, []string{"11-50"}, values.CompanySizes)

	err = store.UpdateClassification(ctx, "https://unknown.example.com/", Classification{Industry: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRebind(t *testing.T) {
	query := `SELECT a FROM t WHERE b = ? AND c = ?`
	assert.Equal(t, query, rebind(DriverSQLite, query))
	assert.Equal(t, `SELECT a FROM t WHERE b = $1 AND c = $2`, rebind(DriverPostgres, query))
}

func TestStoreConfig_DataSourceName(t *testing.T) {
	dsn, err := StoreConfig{Driver: DriverSQLite, Path: "/tmp/x.db", BusyTimeout: 2 * time.Second}.dataSourceName()
	require.NoError(t, err)
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "busy_timeout%282000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")

	_, err = StoreConfig{Driver: DriverPostgres}.dataSourceName()
	assert.Error(t, err)

	_, err = StoreConfig{Driver: "mysql", DSN: "x"}.dataSourceName()
	assert.Error(t, err)
}

func TestDBTime_Scan(t *testing.T) {
	ref := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	for _, value := range []any{ref, "2026-03-04 05:06:07+00:00", []byte("2026-03-04T05:06:07Z")} {
		var ts dbTime
		require.NoError(t, ts.Scan(value))
		assert.True(t, ts.Valid)
		assert.True(t, ts.Time.Equal(ref), "%v", value)
	}

	var ts dbTime
	require.NoError(t, ts.Scan(nil))
	assert.False(t, ts.Valid)
	assert.Error(t, ts.Scan(3.14))
}
