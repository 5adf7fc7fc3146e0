package post

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/stillframe/service/internal/blobstore"
	"github.com/stillframe/service/internal/upload"
)

// Store is the persistence boundary for posts.
type Store interface {
	Create(ctx context.Context, p *Post) (*Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	Update(ctx context.Context, p *Post) (*Post, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListPublished(ctx context.Context) ([]*Post, error)
	ListOwnedBy(ctx context.Context, ownerID string) ([]*Post, error)
}

// Service orchestrates the post lifecycle: row persistence, cover-image
// validation and storage, and per-operation authorization.
//
// A row mutation and its file operation are not one transaction. The ordering
// is validate, store the new file, commit the row, delete the old file: a
// failure at any step before the row commit aborts with nothing user-visible
// changed, and a crash after the commit can at worst leave an orphaned file.
type Service struct {
	store     Store
	blobs     blobstore.Store
	validator *upload.Validator
}

// NewService creates a post Service.
func NewService(store Store, blobs blobstore.Store, validator *upload.Validator) *Service {
	return &Service{store: store, blobs: blobs, validator: validator}
}

// CreateInput is an authoring submission. Cover is nil when no file was attached.
type CreateInput struct {
	Title   string
	Content string
	Intent  Intent
	Cover   *Upload
}

// UpdateInput is an edit submission for an existing post.
type UpdateInput struct {
	Title   string
	Content string
	Intent  Intent
	Cover   CoverAction
}

// Create persists a new post owned by ownerID. If a cover is attached it is
// validated and stored first; any upload failure means no post is created.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Post, error) {
	if ownerID == "" {
		return nil, ErrNotFound
	}
	if err := validateFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	var coverRef *string
	if in.Cover != nil {
		ref, err := s.storeCover(ctx, in.Cover)
		if err != nil {
			return nil, err
		}
		coverRef = &ref
	}

	p := &Post{
		OwnerID:    ownerID,
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		Status:     in.Intent.Status(),
		CoverImage: coverRef,
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		// The row was never written, so the stored file has no referencing
		// row. Reclaim it now rather than leaving it for a sweep.
		if coverRef != nil {
			s.discard(ctx, *coverRef)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Update edits a post owned by actorID. On cover replacement the new file is
// stored before the row is touched, and the old file is deleted only after
// the row update commits, so a failed upload never costs a working cover.
func (s *Service) Update(ctx context.Context, actorID, postID string, in UpdateInput) (*Post, error) {
	if err := validateFields(in.Title, in.Content); err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actorID, current) {
		return nil, ErrNotFound
	}

	newCover := current.CoverImage
	var oldRef *string

	switch in.Cover.Kind {
	case CoverKeep:
		// reference untouched
	case CoverRemove:
		oldRef = current.CoverImage
		newCover = nil
	case CoverReplace:
		if in.Cover.Upload == nil {
			return nil, upload.ErrNoFile
		}
		ref, err := s.storeCover(ctx, in.Cover.Upload)
		if err != nil {
			return nil, err
		}
		oldRef = current.CoverImage
		newCover = &ref
	}

	current.Title = strings.TrimSpace(in.Title)
	current.Content = strings.TrimSpace(in.Content)
	current.Status = in.Intent.Status()
	current.CoverImage = newCover

	updated, err := s.store.Update(ctx, current)
	if err != nil {
		if in.Cover.Kind == CoverReplace && newCover != nil {
			s.discard(ctx, *newCover)
		}
		return nil, err
	}

	if oldRef != nil {
		s.discard(ctx, *oldRef)
	}
	return updated, nil
}

// Delete removes a post owned by actorID and, after the row is gone, its
// cover file.
func (s *Service) Delete(ctx context.Context, actorID, postID string) error {
	current, err := s.store.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !CanMutate(actorID, current) {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, postID, actorID); err != nil {
		return err
	}

	if current.CoverImage != nil {
		s.discard(ctx, *current.CoverImage)
	}
	return nil
}

// Get returns the post if the actor may view it. actorID is empty for
// anonymous readers.
func (s *Service) Get(ctx context.Context, actorID, postID string) (*Post, error) {
	p, err := s.store.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !CanView(actorID, p) {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPublished returns all published posts, newest first. Drafts are never included.
func (s *Service) ListPublished(ctx context.Context) ([]*Post, error) {
	return s.store.ListPublished(ctx)
}

// ListOwnedBy returns every post owned by ownerID, most recently updated
// first, so freshly edited drafts surface at the top.
func (s *Service) ListOwnedBy(ctx context.Context, ownerID string) ([]*Post, error) {
	if ownerID == "" {
		return nil, ErrNotFound
	}
	return s.store.ListOwnedBy(ctx, ownerID)
}

// storeCover runs an upload through validation and commits it to blob storage.
func (s *Service) storeCover(ctx context.Context, up *Upload) (string, error) {
	cand, err := s.validator.Validate(up.File, up.Size)
	if err != nil {
		return "", err
	}
	ref, err := s.blobs.Commit(ctx, cand)
	if err != nil {
		return "", fmt.Errorf("store cover: %w", err)
	}
	return ref, nil
}

// discard removes a stored file whose row reference is gone. Best effort: an
// orphaned file is a recoverable leak, not a correctness violation, so
// failures are logged and swallowed.
func (s *Service) discard(ctx context.Context, ref string) {
	if err := s.blobs.Remove(ctx, ref); err != nil {
		log.Printf("post: could not remove stored cover %q: %v", ref, err)
	}
}

func validateFields(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}
