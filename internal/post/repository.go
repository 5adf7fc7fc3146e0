package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL implementation of Store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post and returns the stored record.
func (r *Repository) Create(ctx context.Context, p *Post) (*Post, error) {
	out := &Post{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO posts (owner_id, title, content, status, cover_image)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, owner_id, title, content, status, cover_image, created_at, updated_at`,
		p.OwnerID, p.Title, p.Content, p.Status, p.CoverImage,
	).Scan(&out.ID, &out.OwnerID, &out.Title, &out.Content, &out.Status,
		&out.CoverImage, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return out, nil
}

// GetByID fetches a post together with its owner's username.
func (r *Repository) GetByID(ctx context.Context, id string) (*Post, error) {
	p := &Post{}
	err := r.db.QueryRow(ctx,
		`SELECT p.id, p.owner_id, u.username, p.title, p.content, p.status,
		        p.cover_image, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.id = $1`,
		id,
	).Scan(&p.ID, &p.OwnerID, &p.Author, &p.Title, &p.Content, &p.Status,
		&p.CoverImage, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// Update overwrites the mutable fields of a post. Last write wins: there is
// no version check, the later update simply replaces the earlier one's fields.
func (r *Repository) Update(ctx context.Context, p *Post) (*Post, error) {
	out := &Post{}
	err := r.db.QueryRow(ctx,
		`UPDATE posts
		 SET title = $1, content = $2, status = $3, cover_image = $4, updated_at = NOW()
		 WHERE id = $5 AND owner_id = $6
		 RETURNING id, owner_id, title, content, status, cover_image, created_at, updated_at`,
		p.Title, p.Content, p.Status, p.CoverImage, p.ID, p.OwnerID,
	).Scan(&out.ID, &out.OwnerID, &out.Title, &out.Content, &out.Status,
		&out.CoverImage, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return out, nil
}

// Delete removes the post if it exists and belongs to ownerID.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM posts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if isInvalidUUID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublished returns published posts newest first, with author usernames.
func (r *Repository) ListPublished(ctx context.Context) ([]*Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.owner_id, u.username, p.title, p.content, p.status,
		        p.cover_image, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.status = 'published'
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows, false)
}

// ListOwnedBy returns every post owned by ownerID, most recently updated
// first, each carrying a short content snippet for the owner's dashboard.
func (r *Repository) ListOwnedBy(ctx context.Context, ownerID string) ([]*Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.owner_id, u.username, p.title, LEFT(p.content, 140), p.status,
		        p.cover_image, p.created_at, p.updated_at
		 FROM posts p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.owner_id = $1
		 ORDER BY p.updated_at DESC`,
		ownerID,
	)
	if isInvalidUUID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("list owned posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows, true)
}

// scanPosts collects listing rows. The fifth column is the full content for
// the published feed and a truncated snippet for owner listings.
func scanPosts(rows pgx.Rows, snippet bool) ([]*Post, error) {
	var posts []*Post
	for rows.Next() {
		p := &Post{}
		var body string
		err := rows.Scan(&p.ID, &p.OwnerID, &p.Author, &p.Title, &body, &p.Status,
			&p.CoverImage, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		if snippet {
			p.Snippet = body
		} else {
			p.Content = body
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

// isInvalidUUID checks whether an error is PostgreSQL invalid_text_representation
// (code 22P02), raised when a non-UUID string is bound to a uuid column. Such
// identifiers can never resolve, so callers treat them as not found.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
