// Package post implements the content lifecycle: authoring, editing,
// publishing and deleting posts, with their cover images kept consistent
// with the rows that reference them.
package post

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned when a post does not resolve, and equally when it
// exists but the actor may not see or touch it. The two cases are collapsed
// on purpose: distinct answers would leak which draft ids exist.
var ErrNotFound = errors.New("post not available")

// ErrInvalidInput flags a missing or malformed required field.
var ErrInvalidInput = errors.New("invalid input")

// Status is the visibility state of a post. Drafts are owner-only,
// published posts are public.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Intent is the action an authoring submission requests. Saving an already
// published post with IntentSaveDraft moves it back to draft; there is no
// separate unpublish operation.
type Intent string

const (
	IntentSaveDraft Intent = "save-draft"
	IntentPublish   Intent = "publish"
)

// ParseIntent converts a form value into an Intent.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentSaveDraft, IntentPublish:
		return Intent(s), nil
	}
	return "", fmt.Errorf("%w: intent must be %q or %q", ErrInvalidInput, IntentSaveDraft, IntentPublish)
}

// Status returns the post status the intent resolves to.
func (i Intent) Status() Status {
	if i == IntentPublish {
		return StatusPublished
	}
	return StatusDraft
}

// Upload is a raw cover-image submission: untrusted bytes plus the size the
// transport declared.
type Upload struct {
	File io.Reader
	Size int64
}

// CoverActionKind enumerates what an update does to the cover slot.
type CoverActionKind int

const (
	// CoverKeep leaves the current reference untouched.
	CoverKeep CoverActionKind = iota
	// CoverReplace stores a new file and deletes the old one after the row commits.
	CoverReplace
	// CoverRemove clears the reference and deletes the old file after the row commits.
	CoverRemove
)

// CoverAction is the cover-image part of an update submission.
// Upload is set only for CoverReplace.
type CoverAction struct {
	Kind   CoverActionKind
	Upload *Upload
}

// KeepCover leaves the existing cover alone.
func KeepCover() CoverAction { return CoverAction{Kind: CoverKeep} }

// RemoveCover clears the cover slot.
func RemoveCover() CoverAction { return CoverAction{Kind: CoverRemove} }

// ReplaceCover swaps the cover for a newly uploaded file.
func ReplaceCover(up *Upload) CoverAction {
	return CoverAction{Kind: CoverReplace, Upload: up}
}

// Post is a single authored piece of content.
type Post struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	// Author is the owner's username, filled on reads that join the users table.
	Author  string `json:"author,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Snippet is a short content prefix, filled only by owner listings.
	Snippet    string    `json:"snippet,omitempty"`
	Status     Status    `json:"status"`
	CoverImage *string   `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
