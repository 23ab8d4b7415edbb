// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/testutil"
)

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	testutil.CreateTestPost(t, env.repo, alice.ID, "Resume tips", "Career")
	testutil.CreateTestPost(t, env.repo, alice.ID, "Go generics", "Programming")

	testCases := []struct {
		name         string
		query        string
		expectStatus int
		contains     []string
		excludes     []string
	}{
		{"all posts", "", http.StatusOK, []string{"Resume tips", "Go generics"}, nil},
		{"tag filter", "?tag=Career", http.StatusOK, []string{"Resume tips"}, []string{"Go generics"}},
		{"tag with space", "?tag=Campus+Life", http.StatusOK, nil, []string{"Resume tips", "Go generics"}},
		{"unknown tag", "?tag=Gossip", http.StatusBadRequest, []string{"Unknown tag"}, nil},
		{"unknown sort falls back", "?sort=weird", http.StatusOK, []string{"Resume tips"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ListPosts(w, httptest.NewRequest("GET", "/forum"+tc.query, nil))

			testutil.AssertStatus(t, w, tc.expectStatus)
			body := w.Body.String()
			for _, want := range tc.contains {
				if !strings.Contains(body, want) {
					t.Errorf("Expected body to contain %q", want)
				}
			}
			for _, unwanted := range tc.excludes {
				if strings.Contains(body, unwanted) {
					t.Errorf("Expected body not to contain %q", unwanted)
				}
			}
		})
	}
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")

	t.Run("anonymous is redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.CreatePost(w, testutil.MakeFormRequest("POST", "/forum/new", url.Values{"title": {"x"}}))
		assertRedirect(t, w, http.StatusSeeOther, "/login")
	})

	t.Run("validation", func(t *testing.T) {
		for name, form := range map[string]url.Values{
			"missing title": {"content": {"body"}},
			"long title":    {"title": {strings.Repeat("t", 201)}, "content": {"body"}},
			"only markup":   {"title": {"x"}, "content": {"<script>alert(1)</script>"}},
			"unknown tag":   {"title": {"x"}, "content": {"body"}, "tag": {"Gossip"}},
		} {
			w := httptest.NewRecorder()
			handler.CreatePost(w, asUser(testutil.MakeFormRequest("POST", "/forum/new", form), alice))
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", name, w.Code)
			}
		}
	})

	t.Run("success", func(t *testing.T) {
		form := url.Values{
			"title":   {"Hello"},
			"content": {`<p>Hi <em>all</em><script>alert(1)</script></p>`},
		}
		w := httptest.NewRecorder()
		handler.CreatePost(w, asUser(testutil.MakeFormRequest("POST", "/forum/new", form), alice))
		testutil.AssertStatus(t, w, http.StatusSeeOther)

		posts, err := env.repo.ListPosts(context.Background(), db.PostFilter{})
		if err != nil || len(posts) != 1 {
			t.Fatalf("Expected one post, got %d (%v)", len(posts), err)
		}
		post := posts[0]
		if loc := w.Header().Get("Location"); loc != "/forum/"+post.ID {
			t.Errorf("Expected redirect to the new post, got %q", loc)
		}
		if post.Tag != models.DefaultTag {
			t.Errorf("Expected default tag, got %q", post.Tag)
		}
		if strings.Contains(post.Content, "script") || !strings.Contains(post.Content, "<em>all</em>") {
			t.Errorf("Expected sanitized content with formatting kept, got %q", post.Content)
		}
	})
}

func showPostRequest(postID string) *http.Request {
	req := httptest.NewRequest("GET", "/forum/"+postID, nil)
	req.SetPathValue("post_id", postID)
	return req
}

func TestShowPost_CountsViewsOncePerUser(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	bob := testutil.CreateTestUser(t, env.repo, "bob")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")

	visits := []*models.User{nil, bob, bob, alice, nil}
	for _, u := range visits {
		req := showPostRequest(post.ID)
		if u != nil {
			req = asUser(req, u)
		}
		w := httptest.NewRecorder()
		handler.ShowPost(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	got, err := env.repo.GetPost(context.Background(), post.ID, "")
	if err != nil {
		t.Fatalf("Failed to reload post: %v", err)
	}
	if got.Views != 2 {
		t.Errorf("Expected 2 views (bob and alice), got %d", got.Views)
	}

	w := httptest.NewRecorder()
	handler.ShowPost(w, showPostRequest("missing"))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestShowPost_AuthorSeesDelete(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	bob := testutil.CreateTestUser(t, env.repo, "bob")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")

	for _, tc := range []struct {
		user       *models.User
		seesDelete bool
	}{{alice, true}, {bob, false}} {
		w := httptest.NewRecorder()
		handler.ShowPost(w, asUser(showPostRequest(post.ID), tc.user))
		if got := strings.Contains(w.Body.String(), "Delete post"); got != tc.seesDelete {
			t.Errorf("%s: expected delete button %v, got %v", tc.user.Username, tc.seesDelete, got)
		}
	}
}

func commentRequest(postID string, form url.Values) *http.Request {
	req := testutil.MakeFormRequest("POST", "/forum/"+postID+"/comments", form)
	req.SetPathValue("post_id", postID)
	return req
}

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")
	otherPost := testutil.CreateTestPost(t, env.repo, alice.ID, "Other", "General")
	foreign, err := env.repo.CreateComment(context.Background(), otherPost.ID, alice.ID, "elsewhere", nil)
	if err != nil {
		t.Fatalf("Failed to seed comment: %v", err)
	}

	w := httptest.NewRecorder()
	handler.CreateComment(w, asUser(commentRequest(post.ID, url.Values{"content": {"top"}}), alice))
	assertRedirect(t, w, http.StatusSeeOther, "/forum/"+post.ID)

	tree, _ := env.repo.ListCommentTree(context.Background(), post.ID, "")
	if len(tree) != 1 {
		t.Fatalf("Expected one top-level comment, got %d", len(tree))
	}

	w = httptest.NewRecorder()
	form := url.Values{"content": {"nested"}, "parent_id": {tree[0].ID}}
	handler.CreateComment(w, asUser(commentRequest(post.ID, form), alice))
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	testCases := []struct {
		name         string
		postID       string
		form         url.Values
		anonymous    bool
		expectStatus int
	}{
		{"anonymous", post.ID, url.Values{"content": {"x"}}, true, http.StatusSeeOther},
		{"empty content", post.ID, url.Values{"content": {"   "}}, false, http.StatusBadRequest},
		{"parent on another post", post.ID, url.Values{"content": {"x"}, "parent_id": {foreign.ID}}, false, http.StatusBadRequest},
		{"unknown parent", post.ID, url.Values{"content": {"x"}, "parent_id": {"nope"}}, false, http.StatusBadRequest},
		{"unknown post", "nope", url.Values{"content": {"x"}}, false, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := commentRequest(tc.postID, tc.form)
			if !tc.anonymous {
				req = asUser(req, alice)
			}
			w := httptest.NewRecorder()
			handler.CreateComment(w, req)
			testutil.AssertStatus(t, w, tc.expectStatus)
		})
	}

	tree, _ = env.repo.ListCommentTree(context.Background(), post.ID, "")
	if len(tree) != 1 || len(tree[0].Replies) != 1 || tree[0].Replies[0].Content != "nested" {
		t.Errorf("Expected one nested reply, got %+v", tree)
	}
}

func TestVotePost(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")

	formVote := func(postID, voteType string) *http.Request {
		req := testutil.MakeFormRequest("POST", "/forum/"+postID+"/vote", url.Values{"vote_type": {voteType}})
		req.SetPathValue("post_id", postID)
		return req
	}
	jsonVote := func(postID, voteType string) *http.Request {
		req := testutil.MakeRequest("POST", "/forum/"+postID+"/vote", models.VoteForm{VoteType: voteType}, nil)
		req.SetPathValue("post_id", postID)
		return req
	}

	steps := []struct {
		name      string
		req       *http.Request
		upvotes   int
		downvotes int
		userVote  string
	}{
		{"form upvote", formVote(post.ID, "up"), 1, 0, "up"},
		{"json switch to down", jsonVote(post.ID, "down"), 0, 1, "down"},
		{"same again removes", formVote(post.ID, "down"), 0, 0, ""},
	}

	for _, step := range steps {
		w := httptest.NewRecorder()
		handler.VotePost(w, asUser(step.req, alice))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VoteResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ID != post.ID || resp.Upvotes != step.upvotes || resp.Downvotes != step.downvotes {
			t.Errorf("%s: unexpected tally %+v", step.name, resp)
		}
		if resp.Score != step.upvotes-step.downvotes {
			t.Errorf("%s: expected score %d, got %d", step.name, step.upvotes-step.downvotes, resp.Score)
		}
		gotVote := ""
		if resp.UserVote != nil {
			gotVote = *resp.UserVote
		}
		if gotVote != step.userVote {
			t.Errorf("%s: expected user_vote %q, got %q", step.name, step.userVote, gotVote)
		}
	}

	errCases := []struct {
		name         string
		req          *http.Request
		anonymous    bool
		expectStatus int
	}{
		{"anonymous", formVote(post.ID, "up"), true, http.StatusUnauthorized},
		{"bad vote type", formVote(post.ID, "sideways"), false, http.StatusBadRequest},
		{"missing post", formVote("nope", "up"), false, http.StatusNotFound},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			if !tc.anonymous {
				req = asUser(req, alice)
			}
			w := httptest.NewRecorder()
			handler.VotePost(w, req)
			testutil.AssertStatus(t, w, tc.expectStatus)
		})
	}
}

func TestVoteComment(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	bob := testutil.CreateTestUser(t, env.repo, "bob")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")
	comment, err := env.repo.CreateComment(context.Background(), post.ID, alice.ID, "nice", nil)
	if err != nil {
		t.Fatalf("Failed to seed comment: %v", err)
	}

	for _, u := range []*models.User{alice, bob} {
		req := testutil.MakeFormRequest("POST", "/forum/comments/"+comment.ID+"/vote", url.Values{"vote_type": {"up"}})
		req.SetPathValue("comment_id", comment.ID)
		w := httptest.NewRecorder()
		handler.VoteComment(w, asUser(req, u))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VoteResponse
		testutil.AssertJSON(t, w, &resp)
		if u == bob && (resp.Upvotes != 2 || resp.Score != 2) {
			t.Errorf("Expected two upvotes after bob, got %+v", resp)
		}
	}

	req := testutil.MakeFormRequest("POST", "/forum/comments/nope/vote", url.Values{"vote_type": {"up"}})
	req.SetPathValue("comment_id", "nope")
	w := httptest.NewRecorder()
	handler.VoteComment(w, asUser(req, alice))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	handler := NewForumHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	bob := testutil.CreateTestUser(t, env.repo, "bob")
	post := testutil.CreateTestPost(t, env.repo, alice.ID, "Welcome", "General")
	if _, err := env.repo.CreateComment(context.Background(), post.ID, bob.ID, "first!", nil); err != nil {
		t.Fatalf("Failed to seed comment: %v", err)
	}
	if _, err := env.repo.VotePost(context.Background(), post.ID, bob.ID, models.VoteUp); err != nil {
		t.Fatalf("Failed to seed vote: %v", err)
	}

	deleteRequest := func(postID string, user *models.User) *http.Request {
		req := httptest.NewRequest("POST", "/forum/"+postID+"/delete", nil)
		req.SetPathValue("post_id", postID)
		return asUser(req, user)
	}

	w := httptest.NewRecorder()
	handler.DeletePost(w, deleteRequest(post.ID, bob))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	handler.DeletePost(w, deleteRequest(post.ID, alice))
	assertRedirect(t, w, http.StatusSeeOther, "/forum")

	if _, err := env.repo.GetPost(context.Background(), post.ID, ""); err != db.ErrNotFound {
		t.Errorf("Expected post to be gone, got %v", err)
	}
	stats, _ := env.repo.GetUserStats(context.Background(), "bob")
	if stats.CommentCount != 0 {
		t.Errorf("Expected comments to cascade, bob still has %d", stats.CommentCount)
	}

	w = httptest.NewRecorder()
	handler.DeletePost(w, deleteRequest(post.ID, alice))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
