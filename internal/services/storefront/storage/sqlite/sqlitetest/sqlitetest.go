// Package sqlitetest opens throwaway SQLite stores for tests.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
)

// Open returns a migrated store in a temp directory, closed on cleanup.
func Open(t testing.TB) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "storefront.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close sqlite store: %v", err)
		}
	})
	return store
}

// MustCreateUser inserts a user with the given role.
func MustCreateUser(t testing.TB, store storage.UserStore, id, email, name, role string) storage.User {
	t.Helper()
	user := storage.User{ID: id, Email: email, Name: name, PasswordHash: "hash", Role: role}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return user
}

// MustPutProduct stores product.
func MustPutProduct(t testing.TB, store storage.CatalogStore, product storage.Product) storage.Product {
	t.Helper()
	if err := store.PutProduct(context.Background(), product); err != nil {
		t.Fatalf("put product %s: %v", product.ID, err)
	}
	return product
}
