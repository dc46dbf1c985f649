package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/nanoblog/internal/blogservice"
)

func TestParseJSON(t *testing.T) {
	app := &application{}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "Valid", body: `{"username": "alice", "password": "secret"}`},
		{name: "Empty Body", body: ``, wantErr: "request body must not be empty"},
		{name: "Badly Formed", body: `{"username": "alice",}`, wantErr: "badly-formed JSON"},
		{name: "Wrong Type", body: `{"username": 7}`, wantErr: `invalid value for the "username" field`},
		{name: "Unknown Field", body: `{"role": "admin"}`, wantErr: `unknown field "role"`},
		{name: "Two Values", body: `{"username": "a"}{"username": "b"}`, wantErr: "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst loginUserRequest

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			res := httptest.NewRecorder()

			err := app.parseJSON(res, req, &dst)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "alice", dst.Username)
				return
			}

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestReadIDParam(t *testing.T) {
	app := &application{}

	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "12", want: 12},
		{value: "0", wantErr: true},
		{value: "-3", wantErr: true},
		{value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile_pic/"+tt.value, nil)
			ctx := context.WithValue(req.Context(), httprouter.ParamsKey, httprouter.Params{{Key: "id", Value: tt.value}})
			req = req.WithContext(ctx)

			id, err := app.readIDParam(req, "id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestReadCursor(t *testing.T) {
	app := &application{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cursor, err := app.readCursor(req)
	assert.NoError(t, err)
	assert.Nil(t, cursor)

	req = httptest.NewRequest(http.MethodGet, "/?last_updated=", nil)
	cursor, err = app.readCursor(req)
	if assert.NoError(t, err) && assert.NotNil(t, cursor) {
		assert.True(t, cursor.IsZero())
	}

	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	req = httptest.NewRequest(http.MethodGet, "/?last_updated="+blogservice.FormatCursor(want), nil)
	cursor, err = app.readCursor(req)
	if assert.NoError(t, err) && assert.NotNil(t, cursor) {
		assert.True(t, want.Equal(*cursor))
	}
}

func TestSeeOther(t *testing.T) {
	app := &application{}

	req := httptest.NewRequest(http.MethodPost, "/follow/bob", nil)
	res := httptest.NewRecorder()

	app.seeOther(res, req, "/user/bob")

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/user/bob", res.Header().Get("Location"))
}

func TestRenderComment(t *testing.T) {
	c := &blogservice.Comment{
		ID:        4,
		Text:      `<img src=x onerror="alert(1)">`,
		Username:  "bob",
		PostID:    2,
		CreatedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}

	html, err := renderComment(c)
	assert.NoError(t, err)
	assert.Contains(t, html, `id="comment-4"`)
	assert.Contains(t, html, `href="/user/bob"`)
	assert.Contains(t, html, "Mar 1, 2024 12:30")
	assert.NotContains(t, html, "<img")
}
