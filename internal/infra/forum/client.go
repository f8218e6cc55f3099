// Package forum posts project progress topics to the Ara Flarum forum.
package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrDisabled is returned by the no-op client when no forum is configured.
var ErrDisabled = errors.New("forum is disabled")

// Discussion is a created forum topic with the author metadata the
// projections keep.
type Discussion struct {
	ID        int64
	Username  string
	UserID    int64
	CreatedAt string
}

// Client creates forum discussions.
type Client interface {
	// CreateDiscussion posts a new topic under the given tag.
	CreateDiscussion(ctx context.Context, title, content, tagID string) (*Discussion, error)
}

// Config holds forum connection configuration.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	UserID   int64  `yaml:"user_id"`
	APIKey   string `yaml:"api_key"`
	ActTagID string `yaml:"act_tag_id"`
}

// HTTPClient talks to a Flarum forum's JSON:API.
type HTTPClient struct {
	endpoint   string
	userID     int64
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a forum client authorized with an admin API key.
func NewHTTPClient(cfg Config) *HTTPClient {
	return &HTTPClient{
		endpoint: cfg.Endpoint,
		userID:   cfg.UserID,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type discussionDocument struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Title     string `json:"title"`
			CreatedAt string `json:"createdAt"`
		} `json:"attributes"`
		Relationships struct {
			User struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"user"`
			FirstPost struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"firstPost"`
		} `json:"relationships"`
	} `json:"data"`
	Included []struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			Username  string `json:"username"`
			CreatedAt string `json:"createdAt"`
		} `json:"attributes"`
	} `json:"included"`
}

// CreateDiscussion posts a new topic under the given tag.
func (c *HTTPClient) CreateDiscussion(
	ctx context.Context,
	title, content, tagID string,
) (*Discussion, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type": "discussions",
			"attributes": map[string]any{
				"title":   title,
				"content": content,
			},
			"relationships": map[string]any{
				"tags": map[string]any{
					"data": []map[string]any{
						{"type": "tags", "id": tagID},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal discussion: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, "POST", c.endpoint+"/api/discussions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Token %s; userId=%d", c.apiKey, c.userID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post discussion: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	var doc discussionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse discussion: %w", err)
	}

	id, err := strconv.ParseInt(doc.Data.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("discussion id %q: %w", doc.Data.ID, err)
	}

	d := &Discussion{
		ID:        id,
		CreatedAt: doc.Data.Attributes.CreatedAt,
	}

	authorID := doc.Data.Relationships.User.Data.ID
	for _, inc := range doc.Included {
		switch inc.Type {
		case "users":
			if inc.ID == authorID {
				d.Username = inc.Attributes.Username
				d.UserID, _ = strconv.ParseInt(inc.ID, 10, 64)
			}
		case "posts":
			if inc.ID == doc.Data.Relationships.FirstPost.Data.ID && inc.Attributes.CreatedAt != "" {
				d.CreatedAt = inc.Attributes.CreatedAt
			}
		}
	}

	return d, nil
}

// NoopClient is used when no forum is configured. Every call returns
// ErrDisabled so callers fall back to projections without forum metadata.
type NoopClient struct{}

// CreateDiscussion always returns ErrDisabled.
func (NoopClient) CreateDiscussion(context.Context, string, string, string) (*Discussion, error) {
	return nil, ErrDisabled
}
