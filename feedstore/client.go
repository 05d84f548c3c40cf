// Package feedstore is the REST client for the external community feed
// service. The feed owns its own data; this module only reads the feed and
// publishes posts (settlement announcements included) on behalf of users.
package feedstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campuspolls/models"
	"github.com/google/uuid"
)

// Client talks to the feed service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new feed client. baseURL is the feed API root,
// e.g. "http://feed.internal:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListPosts returns the community feed, newest first
func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	body, err := c.do(ctx, http.MethodGet, "/posts", nil)
	if err != nil {
		return nil, fmt.Errorf("feedstore: list posts: %w", err)
	}

	var posts []models.Post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("feedstore: decode posts: %w", err)
	}

	return posts, nil
}

// CreatePost publishes a post on behalf of a user
func (c *Client) CreatePost(ctx context.Context, authorID int64, title, body string) (*models.Post, error) {
	payload := map[string]any{
		"authorId": authorID,
		"title":    title,
		"body":     body,
	}

	respBody, err := c.do(ctx, http.MethodPost, "/posts", payload)
	if err != nil {
		return nil, fmt.Errorf("feedstore: create post: %w", err)
	}

	var post models.Post
	if err := json.Unmarshal(respBody, &post); err != nil {
		return nil, fmt.Errorf("feedstore: decode post: %w", err)
	}

	return &post, nil
}

// ToggleLike toggles a user's like on a post
func (c *Client) ToggleLike(ctx context.Context, postID, userID int64) error {
	payload := map[string]any{
		"userId": userID,
	}

	path := fmt.Sprintf("/posts/%d/likes", postID)
	if _, err := c.do(ctx, http.MethodPost, path, payload); err != nil {
		return fmt.Errorf("feedstore: toggle like on post %d: %w", postID, err)
	}

	return nil
}

// AddComment adds a comment to a post
func (c *Client) AddComment(ctx context.Context, postID, userID int64, content string) (*models.Comment, error) {
	payload := map[string]any{
		"authorId": userID,
		"content":  content,
	}

	path := fmt.Sprintf("/posts/%d/comments", postID)
	respBody, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, fmt.Errorf("feedstore: add comment to post %d: %w", postID, err)
	}

	var comment models.Comment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return nil, fmt.Errorf("feedstore: decode comment: %w", err)
	}

	return &comment, nil
}

// do sends a request and returns the response body. Every request carries a
// unique X-Request-ID so feed-side logs can be correlated with ours.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep error messages bounded even if the feed returns a large body
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	return body, nil
}
