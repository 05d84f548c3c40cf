package feedstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campuspolls/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		json.NewEncoder(w).Encode([]models.Post{
			{ID: 1, AuthorID: 7, Title: "Welcome", Likes: 3},
			{ID: 2, AuthorID: 8, Title: "Results are in"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	posts, err := client.ListPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Welcome", posts[0].Title)
	assert.Equal(t, 3, posts[0].Likes)
}

func TestClient_CreatePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(7), payload["authorId"])
		assert.Equal(t, "Poll resolved: Lunch?", payload["title"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Post{ID: 42, AuthorID: 7, Title: "Poll resolved: Lunch?"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	post, err := client.CreatePost(context.Background(), 7, "Poll resolved: Lunch?", "Pizza won.")

	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
}

func TestClient_ToggleLike(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/5/likes", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.ToggleLike(context.Background(), 5, 100)

	assert.NoError(t, err)
}

func TestClient_AddComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/5/comments", r.URL.Path)
		json.NewEncoder(w).Encode(models.Comment{ID: 9, PostID: 5, AuthorID: 100, Content: "gg"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	comment, err := client.AddComment(context.Background(), 5, 100, "gg")

	require.NoError(t, err)
	assert.Equal(t, int64(9), comment.ID)
	assert.Equal(t, "gg", comment.Content)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "post not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.ToggleLike(context.Background(), 99, 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "post not found")
}
