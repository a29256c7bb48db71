package danbooru_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"imgsauce/internal/services"
	"imgsauce/internal/services/danbooru"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *danbooru.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return danbooru.NewClient(danbooru.Config{Login: "tester", APIKey: "key", BaseURL: server.URL})
}

func TestFindByMD5(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("tags"); got != "md5:abc123" {
			t.Errorf("tags = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "tester" || pass != "key" {
			t.Errorf("basic auth = %q %q %v", user, pass, ok)
		}
		_, _ = io.WriteString(w, `[{"id": 42, "md5": "abc123", "image_width": 800, "image_height": 600, "is_banned": true}]`)
	})

	post, err := client.FindByMD5(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("FindByMD5: %v", err)
	}
	if post == nil || post.ID != 42 || !post.IsBanned {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestFindByMD5Miss(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	post, err := client.FindByMD5(context.Background(), "ffff")
	if err != nil {
		t.Fatalf("FindByMD5: %v", err)
	}
	if post != nil {
		t.Fatalf("expected nil post, got %+v", post)
	}
}

func TestGetAsset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/7.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"id": 7, "image_width": 1200, "image_height": 900, "is_banned": false}`)
	})
	asset, err := client.GetAsset(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if asset.RemoteID != 7 || asset.Width != 1200 || asset.Height != 900 || asset.Banned {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestAddFavorite(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/favorites.json" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("post_id") != "99" {
			t.Errorf("post_id = %q", r.PostForm.Get("post_id"))
		}
		if calls > 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	if err := client.AddFavorite(context.Background(), 99); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := client.AddFavorite(context.Background(), 99); err != nil {
		t.Fatalf("AddFavorite on existing favorite: %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, services.ErrCredential},
		{http.StatusForbidden, services.ErrCredential},
		{http.StatusNotFound, services.ErrSkipFile},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusBadGateway, services.ErrTransient},
		{http.StatusBadRequest, services.ErrExternal},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.GetPost(context.Background(), 1)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestPostURL(t *testing.T) {
	client := danbooru.NewClient(danbooru.Config{BaseURL: "https://example.test/"})
	if got := client.PostURL(5); got != "https://example.test/posts/5" {
		t.Fatalf("PostURL = %q", got)
	}
}
