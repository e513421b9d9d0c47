// Package publisher posts text threads to the X API: single posts, reply
// chains, and the media upload the forecast banner needs.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultCreatePostURL  = "https://api.x.com/2/tweets"
	defaultUploadMediaURL = "https://upload.twitter.com/1.1/media/upload.json"
)

// ErrTooLong marks the platform's over-length rejection, which callers
// handle differently from a generic API failure (it stops the current chain
// without being retried).
var ErrTooLong = errors.New("post rejected as too long")

// APIError is a non-2xx response from the X API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("x api: status %d: %s", e.StatusCode, e.Detail)
}

// Config holds the X app and user credentials.
type Config struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Client talks to the X API with OAuth 1.0a user-context auth.
type Client struct {
	cfg     Config
	client  *http.Client
	signer  *oauth1Signer
	verbose bool
	logger  *log.Logger

	createPostURL  string
	uploadMediaURL string
}

// New creates a Client. httpClient may be nil; logger may be nil.
func New(cfg Config, httpClient *http.Client, verbose bool, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessTokenSecret == "" {
		return nil, errors.New("config must include api key/secret and access token/secret")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:            cfg,
		client:         httpClient,
		signer:         newOAuth1Signer(cfg.APIKey, cfg.APISecret, cfg.AccessToken, cfg.AccessTokenSecret),
		verbose:        verbose,
		logger:         logger,
		createPostURL:  defaultCreatePostURL,
		uploadMediaURL: defaultUploadMediaURL,
	}, nil
}

func (c *Client) infof(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.logger.Printf("[INFO] "+format, args...)
}

type createPostPayload struct {
	Text  string           `json:"text"`
	Reply *replyPayload    `json:"reply,omitempty"`
	Media *mediaIDsPayload `json:"media,omitempty"`
}

type replyPayload struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type mediaIDsPayload struct {
	MediaIDs []string `json:"media_ids"`
}

// CreatePost publishes one post and returns its id. replyTo chains the post
// under an existing one; mediaIDs attaches previously uploaded media.
func (c *Client) CreatePost(ctx context.Context, text, replyTo string, mediaIDs []string) (string, error) {
	payload := createPostPayload{Text: text}
	if replyTo != "" {
		payload.Reply = &replyPayload{InReplyToTweetID: replyTo}
	}
	if len(mediaIDs) > 0 {
		payload.Media = &mediaIDsPayload{MediaIDs: mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createPostURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	auth, err := c.signer.authHeader(http.MethodPost, c.createPostURL)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := gjson.GetBytes(respBody, "detail").String()
		if detail == "" {
			detail = string(respBody)
		}
		// the platform reports an over-length post as Forbidden
		if resp.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("%w: %s", ErrTooLong, detail)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	id := gjson.GetBytes(respBody, "data.id").String()
	if id == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Detail: "response missing data.id"}
	}
	c.infof("created post id=%s reply_to=%q", id, replyTo)
	return id, nil
}

// UploadMedia uploads an image through the v1.1 media endpoint and returns
// its media id for use in CreatePost.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadMediaURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	auth, err := c.signer.authHeader(http.MethodPost, c.uploadMediaURL)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Detail: string(respBody)}
	}

	mediaID := gjson.GetBytes(respBody, "media_id_string").String()
	if mediaID == "" {
		mediaID = gjson.GetBytes(respBody, "media_id").String()
	}
	if mediaID == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Detail: "response missing media_id"}
	}
	c.infof("uploaded media %s -> media_id=%s", path, mediaID)
	return mediaID, nil
}

// PublishThread posts parts in strict order as a reply chain, attaching
// mediaIDs to the first post only. It returns the id of the first confirmed
// post; a failure later in the chain still returns that id together with the
// error, because the top-level post is out in the world either way and the
// caller must not re-trigger a whole new thread.
func (c *Client) PublishThread(ctx context.Context, parts []string, mediaIDs []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("publish thread: no parts")
	}

	firstID, err := c.CreatePost(ctx, parts[0], "", mediaIDs)
	if err != nil {
		return "", fmt.Errorf("publish thread: first post: %w", err)
	}

	lastID := firstID
	for i, part := range parts[1:] {
		id, err := c.CreatePost(ctx, part, lastID, nil)
		if err != nil {
			// visible partial thread, accepted failure mode
			return firstID, fmt.Errorf("publish thread: reply %d/%d: %w", i+2, len(parts), err)
		}
		lastID = id
	}

	c.infof("published thread of %d post(s), head=%s", len(parts), firstID)
	return firstID, nil
}
