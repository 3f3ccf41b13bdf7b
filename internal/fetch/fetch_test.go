package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

func TestGet_DataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dot.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/blob":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("hi"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, "sitegen-test")

	res, err := c.Get(context.Background(), srv.URL+"/dot.png")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", res.DataURL())

	res, err = c.Get(context.Background(), srv.URL+"/blob")
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, res.ContentType)
	assert.Equal(t, "data:application/octet-stream;base64,aGk=", res.DataURL())

	_, err = c.Get(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestGet_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(time.Second, "", WithRetry(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2)))
	res, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(time.Second, "", WithRetry(retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 3)))
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 11)))
	}))
	defer srv.Close()

	_, err := NewClient(time.Second, "", WithMaxBody(10)).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	assert.Contains(t, err.Error(), "resource too large")

	res, err := NewClient(time.Second, "", WithMaxBody(11)).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.Body, 11)
}

func TestGet_UnreachableHost(t *testing.T) {
	c := NewClient(time.Second, "")
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/nothing")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestFindIcon(t *testing.T) {
	base, _ := url.Parse("https://example.com/blog/post")

	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "rel before href",
			page: `<html><head><link rel="icon" href="/static/icon.png"></head></html>`,
			want: "https://example.com/static/icon.png",
		},
		{
			name: "href before rel, relative path",
			page: `<head><link href="fav.ico" type="image/x-icon" rel="shortcut icon"/></head>`,
			want: "https://example.com/blog/fav.ico",
		},
		{
			name: "absolute href",
			page: `<link rel="stylesheet" href="/a.css"><link REL="Icon" HREF="https://cdn.example.net/i.svg">`,
			want: "https://cdn.example.net/i.svg",
		},
		{
			name: "no icon declared",
			page: `<html><head><title>x</title></head></html>`,
			want: "https://example.com/favicon.ico",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindIcon(strings.NewReader(tt.page), base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
