package repository

import (
	"context"
	"testing"

	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/internal/syncerrors"
	"github.com/edly-io/nodebb-sync/pkg/cache"
)

// countingStore is an in-memory LinksStore that counts read calls so tests can
// observe cache hits.
type countingStore struct {
	uids       map[string]int64
	categories map[string]*models.CategoryLink

	uidReads      int
	categoryReads int
}

func newCountingStore() *countingStore {
	return &countingStore{
		uids:       make(map[string]int64),
		categories: make(map[string]*models.CategoryLink),
	}
}

func (s *countingStore) SaveUserLink(_ context.Context, username string, uid int64) error {
	s.uids[username] = uid
	return nil
}

func (s *countingStore) GetUserUID(_ context.Context, username string) (int64, error) {
	s.uidReads++
	uid, ok := s.uids[username]
	if !ok {
		return 0, syncerrors.NewNotFoundError("user link", username)
	}
	return uid, nil
}

func (s *countingStore) DeleteUserLink(_ context.Context, username string) error {
	delete(s.uids, username)
	return nil
}

func (s *countingStore) SaveCategoryLink(_ context.Context, link *models.CategoryLink) error {
	s.categories[link.CourseID] = link
	return nil
}

func (s *countingStore) GetCategoryLink(_ context.Context, courseID string) (*models.CategoryLink, error) {
	s.categoryReads++
	link, ok := s.categories[courseID]
	if !ok {
		return nil, syncerrors.NewNotFoundError("category link", courseID)
	}
	return link, nil
}

func (s *countingStore) DeleteCategoryLink(_ context.Context, courseID string) error {
	delete(s.categories, courseID)
	return nil
}

func newCachingStore(t *testing.T, inner LinksStore) LinksStore {
	t.Helper()

	uidCache, err := cache.NewLoaderCache[string, int64](16, func(k string) string { return k })
	if err != nil {
		t.Fatalf("NewLoaderCache() error = %v", err)
	}

	categoryCache, err := cache.NewLoaderCache[string, *models.CategoryLink](16, func(k string) string { return k })
	if err != nil {
		t.Fatalf("NewLoaderCache() error = %v", err)
	}

	return NewCachingLinksStore(inner, uidCache, categoryCache)
}

func TestCachingLinksStore_UIDLookupsAreCached(t *testing.T) {
	inner := newCountingStore()
	inner.uids["alice"] = 17
	store := newCachingStore(t, inner)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		uid, err := store.GetUserUID(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserUID() error = %v", err)
		}
		if uid != 17 {
			t.Fatalf("uid = %d, want 17", uid)
		}
	}

	if inner.uidReads != 1 {
		t.Errorf("inner reads = %d, want 1", inner.uidReads)
	}
}

func TestCachingLinksStore_SaveInvalidatesUID(t *testing.T) {
	inner := newCountingStore()
	inner.uids["alice"] = 17
	store := newCachingStore(t, inner)

	ctx := context.Background()
	if _, err := store.GetUserUID(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveUserLink(ctx, "alice", 99); err != nil {
		t.Fatal(err)
	}

	uid, err := store.GetUserUID(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if uid != 99 {
		t.Errorf("uid after save = %d, want 99 (stale cache entry)", uid)
	}
}

func TestCachingLinksStore_DeleteInvalidatesUID(t *testing.T) {
	inner := newCountingStore()
	inner.uids["alice"] = 17
	store := newCachingStore(t, inner)

	ctx := context.Background()
	if _, err := store.GetUserUID(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteUserLink(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetUserUID(ctx, "alice"); err == nil {
		t.Error("GetUserUID() after delete = nil error, want not found")
	}
}

func TestCachingLinksStore_CategoryLookupsAreCached(t *testing.T) {
	inner := newCountingStore()
	inner.categories["edX/DemoX/2026"] = &models.CategoryLink{
		CourseID:   "edX/DemoX/2026",
		CategoryID: 42,
		GroupSlug:  "demo-edx-demox-2026",
	}
	store := newCachingStore(t, inner)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		link, err := store.GetCategoryLink(ctx, "edX/DemoX/2026")
		if err != nil {
			t.Fatalf("GetCategoryLink() error = %v", err)
		}
		if link.CategoryID != 42 {
			t.Fatalf("cid = %d, want 42", link.CategoryID)
		}
	}

	if inner.categoryReads != 1 {
		t.Errorf("inner reads = %d, want 1", inner.categoryReads)
	}
}

func TestCachingLinksStore_SaveInvalidatesCategory(t *testing.T) {
	inner := newCountingStore()
	inner.categories["edX/DemoX/2026"] = &models.CategoryLink{CourseID: "edX/DemoX/2026", CategoryID: 42}
	store := newCachingStore(t, inner)

	ctx := context.Background()
	if _, err := store.GetCategoryLink(ctx, "edX/DemoX/2026"); err != nil {
		t.Fatal(err)
	}

	err := store.SaveCategoryLink(ctx, &models.CategoryLink{CourseID: "edX/DemoX/2026", CategoryID: 43})
	if err != nil {
		t.Fatal(err)
	}

	link, err := store.GetCategoryLink(ctx, "edX/DemoX/2026")
	if err != nil {
		t.Fatal(err)
	}
	if link.CategoryID != 43 {
		t.Errorf("cid after save = %d, want 43 (stale cache entry)", link.CategoryID)
	}
}
