package repository

import (
	"context"
	"fmt"

	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/pkg/cache"
)

// cachingLinksRepo wraps a LinksStore with caches for GetUserUID and
// GetCategoryLink. Membership jobs hit these lookups once per enrollment
// change, so hot courses and users stay cached.
type cachingLinksRepo struct {
	inner         LinksStore
	uidCache      *cache.LoaderCache[string, int64]
	categoryCache *cache.LoaderCache[string, *models.CategoryLink]
}

// NewCachingLinksStore returns a LinksStore that caches uid and category
// lookups. Caches are invalidated per key on save and delete.
func NewCachingLinksStore(
	inner LinksStore,
	uidCache *cache.LoaderCache[string, int64],
	categoryCache *cache.LoaderCache[string, *models.CategoryLink],
) LinksStore {
	return &cachingLinksRepo{
		inner:         inner,
		uidCache:      uidCache,
		categoryCache: categoryCache,
	}
}

func (r *cachingLinksRepo) SaveUserLink(ctx context.Context, username string, uid int64) error {
	if err := r.inner.SaveUserLink(ctx, username, uid); err != nil {
		return fmt.Errorf("save user link: %w", err)
	}

	r.uidCache.Invalidate(username)

	return nil
}

func (r *cachingLinksRepo) GetUserUID(ctx context.Context, username string) (int64, error) {
	uid, err := r.uidCache.Get(ctx, username, r.inner.GetUserUID)
	if err != nil {
		return 0, fmt.Errorf("get user uid: %w", err)
	}

	return uid, nil
}

func (r *cachingLinksRepo) DeleteUserLink(ctx context.Context, username string) error {
	if err := r.inner.DeleteUserLink(ctx, username); err != nil {
		return fmt.Errorf("delete user link: %w", err)
	}

	r.uidCache.Invalidate(username)

	return nil
}

func (r *cachingLinksRepo) SaveCategoryLink(ctx context.Context, link *models.CategoryLink) error {
	if err := r.inner.SaveCategoryLink(ctx, link); err != nil {
		return fmt.Errorf("save category link: %w", err)
	}

	r.categoryCache.Invalidate(link.CourseID)

	return nil
}

func (r *cachingLinksRepo) GetCategoryLink(ctx context.Context, courseID string) (*models.CategoryLink, error) {
	link, err := r.categoryCache.Get(ctx, courseID, r.inner.GetCategoryLink)
	if err != nil {
		return nil, fmt.Errorf("get category link: %w", err)
	}

	return link, nil
}

func (r *cachingLinksRepo) DeleteCategoryLink(ctx context.Context, courseID string) error {
	if err := r.inner.DeleteCategoryLink(ctx, courseID); err != nil {
		return fmt.Errorf("delete category link: %w", err)
	}

	r.categoryCache.Invalidate(courseID)

	return nil
}

var _ LinksStore = (*cachingLinksRepo)(nil)
