// Package repository provides data access for the NodeBB link tables: the
// username-to-uid and course-to-category mappings this service owns.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/internal/syncerrors"
)

// LinksStore is the interface the workers and caching wrapper depend on.
type LinksStore interface {
	SaveUserLink(ctx context.Context, username string, uid int64) error
	GetUserUID(ctx context.Context, username string) (int64, error)
	DeleteUserLink(ctx context.Context, username string) error
	SaveCategoryLink(ctx context.Context, link *models.CategoryLink) error
	GetCategoryLink(ctx context.Context, courseID string) (*models.CategoryLink, error)
	DeleteCategoryLink(ctx context.Context, courseID string) error
}

// LinksRepository handles data access for NodeBB link rows.
type LinksRepository struct {
	db *pgxpool.Pool
}

// NewLinksRepository creates a new links repository.
func NewLinksRepository(db *pgxpool.Pool) *LinksRepository {
	return &LinksRepository{db: db}
}

// SaveUserLink upserts the uid mapping for a username.
func (r *LinksRepository) SaveUserLink(ctx context.Context, username string, uid int64) error {
	query := `
		INSERT INTO nodebb_user_links (username, nodebb_uid)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET nodebb_uid = EXCLUDED.nodebb_uid
	`

	if _, err := r.db.Exec(ctx, query, username, uid); err != nil {
		return fmt.Errorf("failed to save user link: %w", err)
	}

	return nil
}

// GetUserUID returns the NodeBB uid mapped to username.
func (r *LinksRepository) GetUserUID(ctx context.Context, username string) (int64, error) {
	query := `
		SELECT nodebb_uid
		FROM nodebb_user_links
		WHERE username = $1
	`

	var uid int64
	err := r.db.QueryRow(ctx, query, username).Scan(&uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, syncerrors.NewNotFoundError("user link", "no uid mapped for username "+username)
		}
		return 0, fmt.Errorf("failed to get user link: %w", err)
	}

	return uid, nil
}

// DeleteUserLink removes the uid mapping for username. Deleting a missing
// link is not an error.
func (r *LinksRepository) DeleteUserLink(ctx context.Context, username string) error {
	query := `
		DELETE FROM nodebb_user_links
		WHERE username = $1
	`

	if _, err := r.db.Exec(ctx, query, username); err != nil {
		return fmt.Errorf("failed to delete user link: %w", err)
	}

	return nil
}

// SaveCategoryLink upserts the category mapping for a course.
func (r *LinksRepository) SaveCategoryLink(ctx context.Context, link *models.CategoryLink) error {
	query := `
		INSERT INTO nodebb_category_links (course_id, nodebb_cid, group_slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id) DO UPDATE
			SET nodebb_cid = EXCLUDED.nodebb_cid, group_slug = EXCLUDED.group_slug
	`

	if _, err := r.db.Exec(ctx, query, link.CourseID, link.CategoryID, link.GroupSlug); err != nil {
		return fmt.Errorf("failed to save category link: %w", err)
	}

	return nil
}

// GetCategoryLink returns the category mapping for courseID.
func (r *LinksRepository) GetCategoryLink(ctx context.Context, courseID string) (*models.CategoryLink, error) {
	query := `
		SELECT course_id, nodebb_cid, group_slug, created_at
		FROM nodebb_category_links
		WHERE course_id = $1
	`

	var link models.CategoryLink
	err := r.db.QueryRow(ctx, query, courseID).Scan(
		&link.CourseID, &link.CategoryID, &link.GroupSlug, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, syncerrors.NewNotFoundError("category link", "no category mapped for course "+courseID)
		}
		return nil, fmt.Errorf("failed to get category link: %w", err)
	}

	return &link, nil
}

// DeleteCategoryLink removes the category mapping for courseID.
func (r *LinksRepository) DeleteCategoryLink(ctx context.Context, courseID string) error {
	query := `
		DELETE FROM nodebb_category_links
		WHERE course_id = $1
	`

	if _, err := r.db.Exec(ctx, query, courseID); err != nil {
		return fmt.Errorf("failed to delete category link: %w", err)
	}

	return nil
}

var _ LinksStore = (*LinksRepository)(nil)
