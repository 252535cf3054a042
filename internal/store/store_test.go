// ABOUTME: Tests for record store operations
// ABOUTME: Covers install, existence probe, rename, owner transfer, and deletion

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/warden/internal/address"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testAddresses(t *testing.T) (root, proxy, ns address.Address) {
	t.Helper()
	for i := range root {
		root[i] = byte(i)
	}
	proxy = address.Proxy(root)
	ns = address.Namespace(root, "main")
	return root, proxy, ns
}

// seedNamespace inserts the namespace row records reference via foreign key.
func seedNamespace(t *testing.T, s *SQLiteStore, proxy, ns address.Address) {
	t.Helper()
	require.NoError(t, s.PutNamespace(context.Background(), &Namespace{
		Address:      ns,
		Name:         "main",
		Description:  "test namespace",
		DisplayURI:   "https://example.com/ns",
		OwnerAddress: proxy,
	}))
}

func testRecord(proxy, ns address.Address, ownerID string) *Record {
	return &Record{
		Address:          address.Record(proxy, "main", ownerID),
		NamespaceAddress: ns,
		OwnerID:          ownerID,
		OwnerAddress:     proxy,
		DisplayName:      "hello",
		MutateHandle:     "mutate-handle",
		DestroyHandle:    "destroy-handle",
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
		UpdatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestInstallRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	rec := testRecord(proxy, ns, "alice")
	require.NoError(t, s.InstallRecord(ctx, rec))

	got, err := s.GetRecord(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, rec.Address, got.Address)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, "hello", got.DisplayName)
	assert.Equal(t, "mutate-handle", got.MutateHandle)
	assert.Equal(t, "destroy-handle", got.DestroyHandle)
	assert.Equal(t, proxy, got.OwnerAddress)
}

func TestInstallRecord_AddressCollision(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	require.NoError(t, s.InstallRecord(ctx, testRecord(proxy, ns, "alice")))

	// Same owner derives the same address; the PK rejects the second install.
	err := s.InstallRecord(ctx, testRecord(proxy, ns, "alice"))
	assert.ErrorIs(t, err, ErrRecordExists)
}

func TestGetRecord_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, proxy, _ := testAddresses(t)

	_, err := s.GetRecord(context.Background(), address.Record(proxy, "main", "nobody"))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordExists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	rec := testRecord(proxy, ns, "alice")

	exists, err := s.RecordExists(ctx, rec.Address)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.InstallRecord(ctx, rec))

	exists, err = s.RecordExists(ctx, rec.Address)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateRecordName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	rec := testRecord(proxy, ns, "alice")
	require.NoError(t, s.InstallRecord(ctx, rec))

	require.NoError(t, s.UpdateRecordName(ctx, rec.Address, "newname"))

	got, err := s.GetRecord(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, "newname", got.DisplayName)
	// Only the display name changes.
	assert.Equal(t, "mutate-handle", got.MutateHandle)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestUpdateRecordName_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, proxy, _ := testAddresses(t)

	err := s.UpdateRecordName(context.Background(), address.Record(proxy, "main", "nobody"), "x")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSetRecordOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	rec := testRecord(proxy, ns, "alice")
	require.NoError(t, s.InstallRecord(ctx, rec))

	alice := address.Principal(root, "alice")
	require.NoError(t, s.SetRecordOwner(ctx, rec.Address, alice))

	got, err := s.GetRecord(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, alice, got.OwnerAddress)
}

func TestDeleteRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, proxy, ns := testAddresses(t)
	seedNamespace(t, s, proxy, ns)

	rec := testRecord(proxy, ns, "alice")
	require.NoError(t, s.InstallRecord(ctx, rec))
	require.NoError(t, s.DeleteRecord(ctx, rec.Address))

	exists, err := s.RecordExists(ctx, rec.Address)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.DeleteRecord(ctx, rec.Address), ErrRecordNotFound)
}
