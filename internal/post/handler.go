package post

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stillframe/service/internal/blobstore"
	"github.com/stillframe/service/internal/middleware"
	"github.com/stillframe/service/internal/render"
	"github.com/stillframe/service/internal/response"
	"github.com/stillframe/service/internal/upload"
)

// Handler holds HTTP handlers for post endpoints. Authoring endpoints accept
// multipart forms with fields title, content, intent and an optional cover file.
type Handler struct {
	svc       *Service
	blobs     blobstore.Store
	maxMemory int64
}

// NewHandler creates a post Handler.
func NewHandler(svc *Service, blobs blobstore.Store, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, blobs: blobs, maxMemory: maxUploadBytes}
}

// postView is the wire representation of a post.
type postView struct {
	ID      string `json:"id"      example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	OwnerID string `json:"ownerId" example:"8d9a34a1-54c4-4a62-9d34-b6f9e2a71c02"`
	Author  string `json:"author,omitempty"  example:"ines"`
	Title   string `json:"title"   example:"Morning light"`
	Content string `json:"content,omitempty"`
	// ContentHTML is the rendered, injection-safe HTML for the content;
	// present only on single-post reads.
	ContentHTML string    `json:"contentHtml,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	Status      Status    `json:"status"  example:"published"`
	CoverURL    string    `json:"coverUrl,omitempty" example:"/uploads/covers/a1b2c3d4e5f60718293a4b5c.jpg"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ownedListData struct {
	Posts          []postView `json:"posts"`
	PublishedCount int        `json:"publishedCount" example:"3"`
}

func (h *Handler) view(p *Post, withHTML bool) postView {
	v := postView{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Author:    p.Author,
		Title:     p.Title,
		Content:   p.Content,
		Snippet:   p.Snippet,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.CoverImage != nil {
		v.CoverURL = h.blobs.URL(*p.CoverImage)
	}
	if withHTML {
		v.ContentHTML = render.HTML(p.Content)
	}
	return v
}

func (h *Handler) views(posts []*Post) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.view(p, false))
	}
	return out
}

// Create godoc
//
//	@Summary		Create post
//	@Description	Create a post from a multipart form. Fields: title, content, intent ("save-draft" or "publish"), optional cover image file. An invalid cover means no post is created.
//	@Tags			posts
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			title	formData	string	true	"Post title"
//	@Param			content	formData	string	true	"Markdown content"
//	@Param			intent	formData	string	true	"save-draft or publish"
//	@Param			cover	formData	file	false	"Cover image (JPEG/PNG/WEBP)"
//	@Success		201		{object}	response.Envelope{data=postView}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	intent, err := ParseIntent(r.FormValue("intent"))
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	cover, cleanup, err := coverFromRequest(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	defer cleanup()

	p, err := h.svc.Create(r.Context(), actorID, CreateInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Intent:  intent,
		Cover:   cover,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, h.view(p, false))
}

// Update godoc
//
//	@Summary		Update post
//	@Description	Edit a post you own. Same fields as create, plus removeCover=1 to drop the current cover. Attaching a cover file replaces the old one; omitting both keeps it.
//	@Tags			posts
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Post id"
//	@Param			title	formData	string	true	"Post title"
//	@Param			content	formData	string	true	"Markdown content"
//	@Param			intent	formData	string	true	"save-draft or publish"
//	@Param			cover	formData	file	false	"Replacement cover image"
//	@Param			removeCover	formData	string	false	"Set to 1 to remove the current cover"
//	@Success		200		{object}	response.Envelope{data=postView}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/posts/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	intent, err := ParseIntent(r.FormValue("intent"))
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	action := KeepCover()
	cleanup := func() {}
	if r.FormValue("removeCover") == "1" {
		action = RemoveCover()
	} else {
		cover, cl, err := coverFromRequest(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		cleanup = cl
		if cover != nil {
			action = ReplaceCover(cover)
		}
	}
	defer cleanup()

	p, err := h.svc.Update(r.Context(), actorID, chi.URLParam(r, "id"), UpdateInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Intent:  intent,
		Cover:   action,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, h.view(p, false))
}

// Delete godoc
//
//	@Summary		Delete post
//	@Description	Delete a post you own. Its cover file is removed as well.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Post id"
//	@Success		204
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

// Get godoc
//
//	@Summary		Read post
//	@Description	Fetch a single post with rendered HTML content. Published posts are public; drafts are visible only to their owner and answer 404 to anyone else.
//	@Tags			posts
//	@Produce		json
//	@Param			id	path	string	true	"Post id"
//	@Success		200	{object}	response.Envelope{data=postView}
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())

	p, err := h.svc.Get(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, h.view(p, true))
}

// ListPublished godoc
//
//	@Summary		List published posts
//	@Description	All published posts, newest first. Drafts are never included.
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=[]postView}
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts [get]
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPublished(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, h.views(posts))
}

// ListMine godoc
//
//	@Summary		List my posts
//	@Description	Every post you own, drafts included, most recently updated first, with content snippets and a published count.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=ownedListData}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts/mine [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.ActorID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	posts, err := h.svc.ListOwnedBy(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	published := 0
	for _, p := range posts {
		if p.Status == StatusPublished {
			published++
		}
	}

	response.OK(w, ownedListData{Posts: h.views(posts), PublishedCount: published})
}

// errUploadFailed covers transport-level upload failures, as opposed to
// policy rejections of the file itself.
var errUploadFailed = errors.New("image upload failed")

// coverFromRequest extracts an optional cover upload from the multipart form.
// An absent cover field is not an error, it means "no cover" / "keep existing".
func coverFromRequest(r *http.Request) (*Upload, func(), error) {
	file, header, err := r.FormFile("cover")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, errUploadFailed
	}
	return &Upload{File: file, Size: header.Size}, func() { file.Close() }, nil
}

// writeError maps service errors onto the response envelope. Authorization
// denials and unknown ids produce the same 404 so draft existence never leaks.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, ErrNotFound.Error())
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case upload.IsRejection(err):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}
