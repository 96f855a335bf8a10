// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianFeed/services/feed/audit"
	"github.com/AleutianAI/AleutianFeed/services/feed/datatypes"
	"github.com/AleutianAI/AleutianFeed/services/feed/projector"
	"github.com/AleutianAI/AleutianFeed/services/feed/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// =============================================================================
// classify Tests
// =============================================================================

func TestClassify(t *testing.T) {
	invalidUser := datatypes.NewUser{}
	verr := invalidUser.Validate()
	require.Error(t, verr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", &store.NotFoundError{Kind: datatypes.KindPost, ID: 9}, http.StatusNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"store validation", &store.ValidationError{Field: "username", Constraint: "already taken"}, http.StatusBadRequest, CodeValidationFailed},
		{"validator", verr, http.StatusBadRequest, CodeValidationFailed},
		{"unknown kind", fmt.Errorf("%w: like", datatypes.ErrUnknownEditKind), http.StatusBadRequest, CodeUnknownKind},
		{"closed", store.ErrClosed, http.StatusServiceUnavailable, CodeUnavailable},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestClassify_InternalMessageHidden(t *testing.T) {
	_, _, msg := classify(errors.New("secret detail"))
	assert.NotContains(t, msg, "secret")
}

// =============================================================================
// pathID Tests
// =============================================================================

func TestPathID(t *testing.T) {
	tests := []struct {
		raw    string
		wantID int64
		wantOK bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tt.raw}}

		id, ok := pathID(c, "id")
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.wantID, id, tt.raw)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), CodeInvalidID)
		}
	}
}

// =============================================================================
// Handler Tests
// =============================================================================

func newHandlers(t *testing.T) (*Handlers, *store.Store) {
	t.Helper()
	st := store.New(store.WithLogger(quiet))
	t.Cleanup(func() { _ = st.Close() })
	h := New(st, projector.New(st, projector.WithLogger(quiet)), nil, quiet, Options{})
	return h, st
}

func call(handler gin.HandlerFunc, method, body string, params gin.Params) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	handler(c)
	return w
}

func TestNew_Defaults(t *testing.T) {
	h, _ := newHandlers(t)
	assert.Equal(t, datatypes.DefaultReactionKind, h.opts.DefaultReaction)
	assert.Equal(t, 24*time.Hour, h.opts.StoryLifetime)
	assert.Equal(t, audit.Nop{}, h.opts.Audit)
}

func TestHandleCreateUser(t *testing.T) {
	h, _ := newHandlers(t)

	w := call(h.HandleCreateUser, http.MethodPost,
		`{"username":"alex","password":"secret1","name":"Alex"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "asswordHash")

	var user datatypes.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, int64(1), user.ID)

	w = call(h.HandleCreateUser, http.MethodPost,
		`{"username":"alex","password":"secret1","name":"Again"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeValidationFailed)
}

func TestHandleCreateUser_BadBody(t *testing.T) {
	h, _ := newHandlers(t)

	w := call(h.HandleCreateUser, http.MethodPost, `{"username":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeInvalidRequest)

	w = call(h.HandleCreateUser, http.MethodPost, `{"username":"a","password":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeValidationFailed)
}

func TestHandleCreatePost_UnknownAuthor(t *testing.T) {
	h, st := newHandlers(t)

	w := call(h.HandleCreatePost, http.MethodPost, `{"userId":5,"content":"hi"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	counts, err := st.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts[datatypes.KindPost])
}

func TestHandleHealth_Closed(t *testing.T) {
	h, st := newHandlers(t)
	require.NoError(t, st.Close())

	w := call(h.HandleHealth, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), CodeUnavailable)
}

func TestHandleAdminEdit_BadPayload(t *testing.T) {
	h, _ := newHandlers(t)

	w := call(h.HandleAdminEdit, http.MethodPatch, `[1,2]`,
		gin.Params{{Key: "kind", Value: "post"}, {Key: "id", Value: "1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeInvalidRequest)

	w = call(h.HandleAdminEdit, http.MethodPatch, `{}`,
		gin.Params{{Key: "kind", Value: "like"}, {Key: "id", Value: "1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeUnknownKind)
}
