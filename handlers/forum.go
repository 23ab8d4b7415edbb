// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

const forumPageSize = 100

type ForumHandler struct {
	base
}

func NewForumHandler(repo *db.Repository, cfg cliparse.Config, v *views.Renderer) *ForumHandler {
	return &ForumHandler{base: base{repo: repo, cfg: cfg, views: v}}
}

func viewerID(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}

// ListPosts handles GET /forum
func (h *ForumHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag != "" && !models.IsPostTag(tag) {
		h.renderError(w, r, http.StatusBadRequest, "Unknown tag")
		return
	}

	sort := r.URL.Query().Get("sort")
	switch sort {
	case db.SortNew, db.SortTop, db.SortViews:
	default:
		sort = db.SortNew
	}

	posts, err := h.repo.ListPosts(r.Context(), db.PostFilter{
		Tag:      tag,
		Sort:     sort,
		ViewerID: viewerID(middleware.CurrentUser(r.Context())),
		Limit:    forumPageSize,
	})
	if err != nil {
		slog.Error("failed to list posts", "tag", tag, "sort", sort, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load posts")
		return
	}

	h.render(w, r, http.StatusOK, "forum", "Forum", views.ForumData{
		Posts: posts,
		Tags:  models.PostTags,
		Tag:   tag,
		Sort:  sort,
	})
}

// NewPostPage handles GET /forum/new
func (h *ForumHandler) NewPostPage(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	h.render(w, r, http.StatusOK, "new_post", "New post", views.NewPostData{
		Tags: models.PostTags,
		Tag:  models.DefaultTag,
	})
}

// CreatePost handles POST /forum/new
func (h *ForumHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	form := models.CreatePostForm{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: models.SanitizePost(r.FormValue("content")),
		Tag:     strings.TrimSpace(r.FormValue("tag")),
	}
	if form.Tag == "" {
		form.Tag = models.DefaultTag
	}

	if err := models.Validate(form); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, "new_post", "New post", err.Error(), views.NewPostData{
			Tags:  models.PostTags,
			Title: form.Title,
			Body:  r.FormValue("content"),
			Tag:   form.Tag,
		})
		return
	}

	post, err := h.repo.CreatePost(r.Context(), user.ID, form.Title, form.Content, form.Tag)
	if err != nil {
		slog.Error("failed to insert post", "author_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to create post")
		return
	}

	slog.Info("post created", "post_id", post.ID, "author_id", user.ID, "tag", post.Tag)
	seeOther(w, r, "/forum/"+post.ID)
}

// ShowPost handles GET /forum/{post_id}. A signed-in viewer's first
// visit counts as a view.
func (h *ForumHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("post_id")
	user := middleware.CurrentUser(r.Context())

	post, err := h.repo.GetPost(r.Context(), postID, viewerID(user))
	if errors.Is(err, db.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "post_id", postID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load post")
		return
	}

	if user != nil {
		counted, err := h.repo.RecordView(r.Context(), post.ID, user.ID)
		if err != nil {
			// A lost view is not worth failing the page over
			slog.Warn("failed to record view", "post_id", post.ID, "user_id", user.ID, "error", err)
		}
		if counted {
			post.Views++
		}
	}

	comments, err := h.repo.ListCommentTree(r.Context(), post.ID, viewerID(user))
	if err != nil {
		slog.Error("failed to list comments", "post_id", post.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	h.render(w, r, http.StatusOK, "post", post.Title, views.PostData{
		Post:     post,
		Comments: comments,
		IsAuthor: user != nil && user.ID == post.AuthorID,
	})
}

// CreateComment handles POST /forum/{post_id}/comments
func (h *ForumHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	postID := r.PathValue("post_id")
	if _, err := h.repo.GetPost(r.Context(), postID, user.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.renderError(w, r, http.StatusNotFound, "Post not found")
			return
		}
		slog.Error("failed to query post", "post_id", postID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	form := models.CommentForm{
		Content:  models.SanitizePost(r.FormValue("content")),
		ParentID: strings.TrimSpace(r.FormValue("parent_id")),
	}
	if err := models.Validate(form); err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.repo.CreateComment(r.Context(), postID, user.ID, form.Content, optionalString(form.ParentID))
	if errors.Is(err, db.ErrNotFound) {
		h.renderError(w, r, http.StatusBadRequest, "Parent comment does not belong to this post")
		return
	}
	if err != nil {
		slog.Error("failed to insert comment", "post_id", postID, "author_id", user.ID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	slog.Info("comment created", "comment_id", comment.ID, "post_id", postID, "author_id", user.ID)
	seeOther(w, r, "/forum/"+postID)
}

// VotePost handles POST /forum/{post_id}/vote
func (h *ForumHandler) VotePost(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, r.PathValue("post_id"), "Post", h.repo.VotePost)
}

// VoteComment handles POST /forum/comments/{comment_id}/vote
func (h *ForumHandler) VoteComment(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, r.PathValue("comment_id"), "Comment", h.repo.VoteComment)
}

type voteFunc func(ctx context.Context, itemID, userID, voteType string) (*models.VoteResponse, error)

func (h *ForumHandler) vote(w http.ResponseWriter, r *http.Request, itemID, kind string, cast voteFunc) {
	user := requireUserJSON(w, r)
	if user == nil {
		return
	}

	form, err := parseVote(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := models.Validate(form); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := cast(r.Context(), itemID, user.ID, form.VoteType)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, kind+" not found")
		return
	}
	if err != nil {
		slog.Error("failed to record vote", "kind", strings.ToLower(kind), "item_id", itemID, "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// parseVote reads vote_type from a JSON body or a form
func parseVote(r *http.Request) (models.VoteForm, error) {
	var form models.VoteForm
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		err := middleware.ParseJSONBody(r, &form)
		return form, err
	}
	form.VoteType = strings.TrimSpace(r.FormValue("vote_type"))
	return form, nil
}

// DeletePost handles POST /forum/{post_id}/delete
func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	postID := r.PathValue("post_id")
	post, err := h.repo.GetPost(r.Context(), postID, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		slog.Error("failed to query post", "post_id", postID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	if post.AuthorID != user.ID {
		h.renderError(w, r, http.StatusForbidden, "Only the author can delete this post")
		return
	}

	if err := h.repo.DeletePost(r.Context(), postID); err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("failed to delete post", "post_id", postID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	slog.Info("post deleted", "post_id", postID, "author_id", user.ID)
	seeOther(w, r, "/forum")
}
