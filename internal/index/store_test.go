package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/catalog"
)

var march15 = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestStore_NotOpened(t *testing.T) {
	store := NewStore()
	assert.ErrorIs(t, store.Migrate(), ErrNotOpen)
	_, err := store.FilesByDate(context.Background(), march15)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.NoError(t, store.Close())
}

func TestStore_UpsertAndFind(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, f := range []struct{ dir, name string }{
		{"/data/vs", "03_15_12_45_00.dat"},
		{"/data/vs", "03_15_12_30_00.dat"},
		{"/data/vs", "03_16_12_30_00.dat"},
	} {
		ok, err := store.Upsert(ctx, f.dir, f.name)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := store.Upsert(ctx, "/data/vs", "bad.dat")
	require.NoError(t, err)
	assert.False(t, ok)

	// Re-indexing is idempotent.
	_, err = store.Upsert(ctx, "/data/vs", "03_15_12_30_00.dat")
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	files, err := store.FilesByDate(ctx, march15)
	require.NoError(t, err)
	assert.Equal(t, []catalog.DateFileEntry{
		{FileName: "03_15_12_30_00.dat", Path: "/data/vs"},
		{FileName: "03_15_12_45_00.dat", Path: "/data/vs"},
	}, files)

	files, err = store.FilesByDate(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestStore_Remove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"/data/a/03_15_00_00_00.dat", "/data/a/b/03_15_01_00_00.dat", "/data/a_b/03_15_02_00_00.dat"} {
		_, err := store.Upsert(ctx, filepath.Dir(p), filepath.Base(p))
		require.NoError(t, err)
	}

	n, err := store.Remove(ctx, "/data/a/b/03_15_01_00_00.dat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Remove(ctx, "/data/a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	files, err := store.FilesByDate(ctx, march15)
	require.NoError(t, err)
	assert.Equal(t, []catalog.DateFileEntry{{FileName: "03_15_02_00_00.dat", Path: "/data/a_b"}}, files)
}

func TestStore_Rebuild(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "vs", "03_15_12_30_00.dat"))
	touch(t, filepath.Join(root, "vs", "03_16_12_30_00.dat"))
	touch(t, filepath.Join(root, "ns", "03_15_08_00_15.dat"))
	touch(t, filepath.Join(root, "ns", "readme.txt"))

	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "/stale", "03_15_00_00_00.dat")
	require.NoError(t, err)

	n, err := store.Rebuild(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	files, err := store.FilesByDate(ctx, march15)
	require.NoError(t, err)

	walked, err := catalog.NewWalkFinder(root).FilesByDate(ctx, march15)
	require.NoError(t, err)
	assert.Equal(t, walked, files, "index agrees with a directory walk")
}

func TestStore_FilesByDate_WalkOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "03_15_12_30_00.dat"))
	touch(t, filepath.Join(root, "a-b", "03_15_12_30_00.dat"))
	touch(t, filepath.Join(root, "a", "b", "03_15_08_00_00.dat"))

	store := setupTestStore(t)
	ctx := context.Background()
	_, err := store.Rebuild(ctx, root)
	require.NoError(t, err)

	files, err := store.FilesByDate(ctx, march15)
	require.NoError(t, err)

	walked, err := catalog.NewWalkFinder(root).FilesByDate(ctx, march15)
	require.NoError(t, err)
	assert.Equal(t, walked, files)
	assert.Equal(t, filepath.Join(root, "a-b"), files[len(files)-1].Path)
}

func TestStore_FilesByDate_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT file_name, file_path FROM ionogram_files").
		WithArgs("03", "15").
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewStoreWithDB(db).FilesByDate(context.Background(), march15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FilesByDate_Rows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT file_name, file_path FROM ionogram_files").
		WithArgs("12", "01").
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "file_path"}).
			AddRow("12_01_00_00_00.dat", "/data/x"))

	files, err := NewStoreWithDB(db).FilesByDate(context.Background(), time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []catalog.DateFileEntry{{FileName: "12_01_00_00_00.dat", Path: "/data/x"}}, files)
	assert.NoError(t, mock.ExpectationsWereMet())
}
