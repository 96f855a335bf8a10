// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/clock"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/handlers"
	"github.com/AleutianAI/AleutianFeed/services/feed/projector"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
	start = time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
)

type fixture struct {
	router *gin.Engine
	store  *store.Store
	clk    *clock.Manual
	audit  *audit.Memory
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	clk := clock.NewManual(start)
	st := store.New(store.WithClock(clk), store.WithLogger(quiet), store.WithBcryptCost(bcrypt.MinCost))
	t.Cleanup(func() { _ = st.Close() })

	trail := audit.NewMemory(100, clk.Now)
	h := handlers.New(st, projector.New(st, projector.WithLogger(quiet)), nil, quiet, handlers.Options{
		StoryLifetime: 6 * time.Hour,
		Audit:         trail,
	})
	opts.Logger = quiet
	return &fixture{router: NewRouter(h, opts), store: st, clk: clk, audit: trail}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) seedUser(t *testing.T, username string) datatypes.User {
	t.Helper()
	u, err := f.store.CreateUser(datatypes.NewUser{Username: username, Password: "password123", Name: username})
	require.NoError(t, err)
	return u
}

// =============================================================================
// Route Tests
// =============================================================================

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/metrics", "").Code)

	f = newFixture(t, Options{MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})})
	w := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestUsers(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/api/users", `{"username":"alex","password":"password123","name":"Alex Johnson"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	f.seedUser(t, "sara")

	users := decode[[]datatypes.User](t, f.do(t, http.MethodGet, "/api/users", ""))
	require.Len(t, users, 2)
	assert.Equal(t, "alex", users[0].Username)

	w = f.do(t, http.MethodGet, "/api/users/2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sara", decode[datatypes.User](t, w).Username)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/users/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/users/abc", "").Code)
}

func TestPostLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	alex := f.seedUser(t, "alex")
	sara := f.seedUser(t, "sara")

	w := f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"Sunset at the lake"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[datatypes.PostView](t, w)
	assert.Equal(t, int64(1), created.ID)
	require.NotNil(t, created.User)
	assert.Equal(t, alex.ID, created.User.ID)
	assert.Zero(t, created.Likes.Count)
	assert.NotNil(t, created.Likes.Types)
	assert.Equal(t, "less than a minute ago", created.TimeAgo)

	f.clk.Advance(time.Minute)
	for i, body := range []string{"first", "second", "third"} {
		w = f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":2,"content":"`+body+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, "comment %d", i)
		f.clk.Advance(time.Second)
	}

	w = f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":2,"type":"love"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":true,"likeType":"love","count":1,"types":{"love":1}}`, w.Body.String())

	feed := decode[[]datatypes.PostView](t, f.do(t, http.MethodGet, "/api/posts", ""))
	require.Len(t, feed, 1)
	assert.Equal(t, 3, feed[0].Comments.Count)
	require.Len(t, feed[0].Comments.Preview, 2)
	assert.Equal(t, "first", feed[0].Comments.Preview[0].Content)
	assert.Equal(t, sara.ID, feed[0].Comments.Preview[0].User.ID)

	detail := decode[datatypes.PostDetail](t, f.do(t, http.MethodGet, "/api/posts/1", ""))
	assert.Len(t, detail.Comments, 3)
	assert.Equal(t, 1, detail.Likes.Types["love"])

	w = f.do(t, http.MethodPatch, "/api/posts/1", `{"content":"Edited"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Edited", decode[datatypes.PostView](t, w).Content)

	w = f.do(t, http.MethodDelete, "/api/posts/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	del := decode[handlers.DeleteResponse](t, w)
	assert.True(t, del.Success)
	assert.Equal(t, "Post deleted successfully", del.Message)
	assert.Equal(t, 3, del.CommentsRemoved)
	assert.Equal(t, 1, del.ReactionsRemoved)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/posts/1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/1/comments", "").Code)
	assert.JSONEq(t, `[]`, f.do(t, http.MethodGet, "/api/comments", "").Body.String())
}

func TestCreatePost_Rejections(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"userId":`, http.StatusBadRequest},
		{"missing content", `{"userId":1}`, http.StatusBadRequest},
		{"unknown user", `{"userId":7,"content":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/posts", tt.body)
			assert.Equal(t, tt.want, w.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.NotEmpty(t, resp.Code)
		})
	}
}

func TestComments(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"p"}`).Code)

	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/api/posts/9/comments", `{"userId":1,"content":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":9,"content":"x"}`).Code)

	assert.JSONEq(t, `[]`, f.do(t, http.MethodGet, "/api/posts/1/comments", "").Body.String())

	w := f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":1,"content":"hello"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[datatypes.CommentView](t, w)
	assert.Equal(t, int64(1), comment.PostID)

	f.clk.Advance(90 * time.Second)
	got := decode[datatypes.CommentView](t, f.do(t, http.MethodGet, "/api/comments/1", ""))
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "1 minute ago", got.TimeAgo)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/comments/2", "").Code)

	all := decode[[]datatypes.CommentView](t, f.do(t, http.MethodGet, "/api/comments", ""))
	assert.Len(t, all, 1)
}

func TestReactions(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")
	f.seedUser(t, "sara")
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"p"}`).Code)

	w := f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1}`)
	assert.JSONEq(t, `{"liked":true,"likeType":"like","count":1,"types":{"like":1}}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":2,"type":"love"}`)
	assert.JSONEq(t, `{"liked":true,"likeType":"love","count":2,"types":{"like":1,"love":1}}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1,"type":"love"}`)
	assert.JSONEq(t, `{"liked":true,"likeType":"love","count":2,"types":{"love":2}}`, w.Body.String(),
		"switching keeps one row per user")

	w = f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1,"type":"love"}`)
	assert.JSONEq(t, `{"liked":false,"count":1,"types":{"love":1}}`, w.Body.String())

	assert.JSONEq(t, `{"count":1,"types":{"love":1}}`, f.do(t, http.MethodGet, "/api/posts/1/likes", "").Body.String())

	w = f.do(t, http.MethodGet, "/api/posts/1/likes/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "love", decode[datatypes.Like](t, w).Type)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/1/likes/1", "").Code)

	w = f.do(t, http.MethodDelete, "/api/posts/1/likes/2", "")
	assert.JSONEq(t, `{"removed":true,"count":0,"types":{}}`, w.Body.String())
	w = f.do(t, http.MethodDelete, "/api/posts/1/likes/2", "")
	assert.JSONEq(t, `{"removed":false,"count":0,"types":{}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/posts/9/likes", `{"userId":1}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/9/likes", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":9}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1,"type":"Big Heart"}`).Code)
}

func TestStories(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")
	f.seedUser(t, "sara")

	w := f.do(t, http.MethodPost, "/api/stories", `{"userId":1,"image":"a.jpg"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[handlers.StoryResponse](t, w)
	assert.Equal(t, start.Add(6*time.Hour), created.ExpiresAt.UTC(), "default lifetime applied")
	require.NotNil(t, created.User)
	assert.Equal(t, "alex", created.User.Username)

	f.clk.Advance(time.Minute)
	expires := start.Add(time.Hour).Format(time.RFC3339)
	w = f.do(t, http.MethodPost, "/api/stories", `{"userId":2,"image":"b.jpg","expiresAt":"`+expires+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	past := start.Format(time.RFC3339)
	w = f.do(t, http.MethodPost, "/api/stories", `{"userId":2,"image":"c.jpg","expiresAt":"`+past+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/stories", `{"userId":9,"image":"x"}`).Code)

	groups := decode[[]datatypes.UserStories](t, f.do(t, http.MethodGet, "/api/stories", ""))
	require.Len(t, groups, 2)
	assert.Equal(t, int64(2), groups[0].UserID, "newest story first")
	assert.Equal(t, int64(1), groups[1].UserID)

	f.clk.Set(start.Add(2 * time.Hour))
	groups = decode[[]datatypes.UserStories](t, f.do(t, http.MethodGet, "/api/stories", ""))
	require.Len(t, groups, 1, "sara's story expired")
	assert.Equal(t, int64(1), groups[0].UserID)

	own := decode[[]datatypes.StoryView](t, f.do(t, http.MethodGet, "/api/users/2/stories", ""))
	assert.Empty(t, own)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/users/9/stories", "").Code)
}

func TestUserPosts(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")
	f.seedUser(t, "sara")
	f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"a1"}`)
	f.clk.Advance(time.Second)
	f.do(t, http.MethodPost, "/api/posts", `{"userId":2,"content":"s1"}`)
	f.clk.Advance(time.Second)
	f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"a2"}`)

	posts := decode[[]datatypes.PostView](t, f.do(t, http.MethodGet, "/api/users/1/posts", ""))
	require.Len(t, posts, 2)
	assert.Equal(t, "a2", posts[0].Content)
	assert.Equal(t, "a1", posts[1].Content)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/users/9/posts", "").Code)
}

func TestAdminEdit(t *testing.T) {
	f := newFixture(t, Options{})
	f.seedUser(t, "alex")
	f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"before"}`)
	f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":1,"content":"c"}`)

	w := f.do(t, http.MethodPatch, "/api/admin/post/1", `{"image":"new.jpg"}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[datatypes.PostView](t, w)
	assert.Equal(t, "before", view.Content)
	assert.Equal(t, "new.jpg", view.Image)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/admin/post/9", `{"content":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/admin/user/1", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/admin/user/9", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/admin/comment/1", `{"content":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/admin/story/1", `{}`).Code)
}

func TestAuditLog(t *testing.T) {
	f := newFixture(t, Options{})
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/users",
		`{"username":"alex","password":"password123","name":"Alex"}`).Code)
	f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"first"}`)
	f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":1,"content":"c"}`)

	f.clk.Advance(time.Minute)
	f.do(t, http.MethodPatch, "/api/admin/post/1", `{"content":"edited"}`)
	f.do(t, http.MethodPatch, "/api/admin/comment/1", `{"content":"x"}`)
	f.do(t, http.MethodDelete, "/api/posts/1", "")
	f.do(t, http.MethodDelete, "/api/posts/1", "")

	w := f.do(t, http.MethodGet, "/api/admin/audit", "")
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]audit.Event](t, w)
	require.Len(t, events, 4, "reads and failed deletes are not audited")

	assert.Equal(t, audit.EventPostDeleted, events[0].Type)
	assert.Equal(t, float64(1), events[0].Metadata["commentsRemoved"])
	assert.Equal(t, audit.EventAdminEdit, events[1].Type)
	assert.Equal(t, audit.OutcomeRejected, events[1].Outcome)
	assert.Equal(t, "comment", events[1].ResourceType)
	assert.Equal(t, audit.OutcomeSuccess, events[2].Outcome)
	assert.Equal(t, audit.EventUserCreated, events[3].Type)
	assert.Equal(t, start, events[3].Timestamp.UTC())
	assert.NotEmpty(t, events[3].RequestID)

	w = f.do(t, http.MethodGet, "/api/admin/audit?type=admin.edit&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	events = decode[[]audit.Event](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "comment", events[0].ResourceType)

	w = f.do(t, http.MethodGet, "/api/admin/audit?since="+start.Add(time.Minute).Format(time.RFC3339), "")
	assert.Len(t, decode[[]audit.Event](t, w), 3)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/audit?since=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/audit?limit=-1", "").Code)
	assert.Equal(t, 4, f.audit.Len())
}

func TestRateLimit_AppliesToMutations(t *testing.T) {
	f := newFixture(t, Options{RequestsPerSecond: 0.001, Burst: 1})
	f.seedUser(t, "alex")

	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"a"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"b"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/posts", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "").Code)
}

// TestEndToEnd walks a user through the whole feed surface.
func TestEndToEnd(t *testing.T) {
	f := newFixture(t, Options{})

	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/api/users", `{"username":"u1","password":"password123","name":"U One"}`).Code)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/posts", `{"userId":1,"content":"p1"}`).Code)

	liked := f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1}`)
	assert.Contains(t, liked.Body.String(), `"liked":true`)
	unliked := f.do(t, http.MethodPost, "/api/posts/1/likes", `{"userId":1}`)
	assert.Contains(t, unliked.Body.String(), `"liked":false`)

	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/api/posts/1/comments", `{"userId":1,"content":"c1"}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/posts/1", "").Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/posts/1", "").Code)
	assert.JSONEq(t, `[]`, f.do(t, http.MethodGet, "/api/posts", "").Body.String())
	assert.JSONEq(t, `[]`, f.do(t, http.MethodGet, "/api/comments", "").Body.String())
}
