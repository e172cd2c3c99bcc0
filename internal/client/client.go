// Package client calls the content API over HTTP. URLs are built from the
// route contract and every response is parsed against it, so a server
// that drifts from the contract is reported as an error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"portfolio/app/internal/content"
	"portfolio/app/internal/contract"
)

const defaultTimeout = 10 * time.Second

// ErrNotFound is returned by GetPost when no post has the requested slug.
var ErrNotFound = eris.New("post not found")

// APIError is a documented non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// Client is a typed API client. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, eris.New("base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, eris.Wrapf(err, "invalid base url: %s", base)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListPosts fetches posts newest first, optionally filtered by type.
func (c *Client) ListPosts(ctx context.Context, postType *content.PostType) ([]content.Post, error) {
	query := url.Values{}
	if postType != nil {
		query.Set("type", string(*postType))
	}
	return call[[]content.Post](ctx, c, contract.PostsList, nil, query, nil)
}

// GetPost fetches one post. A missing slug yields ErrNotFound.
func (c *Client) GetPost(ctx context.Context, slug string) (*content.Post, error) {
	params := map[string]string{"slug": url.PathEscape(slug)}

	post, err := call[content.Post](ctx, c, contract.PostsGet, params, nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, eris.Wrapf(ErrNotFound, "slug %s", slug)
		}
		return nil, err
	}
	return &post, nil
}

// ListBeliefs fetches beliefs in display order.
func (c *Client) ListBeliefs(ctx context.Context) ([]content.Belief, error) {
	return call[[]content.Belief](ctx, c, contract.BeliefsList, nil, nil, nil)
}

// ListNowUpdates fetches now updates newest first.
func (c *Client) ListNowUpdates(ctx context.Context) ([]content.NowUpdate, error) {
	return call[[]content.NowUpdate](ctx, c, contract.NowList, nil, nil, nil)
}

// SendMessage submits the contact form. A rejected submission comes back
// as *APIError with status 400 and the server's message.
func (c *Client) SendMessage(ctx context.Context, input content.InsertMessage) (*content.Message, error) {
	message, err := call[content.Message](ctx, c, contract.ContactCreate, nil, nil, input)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func call[T any](ctx context.Context, c *Client, route contract.Route, params map[string]string, query url.Values, body any) (T, error) {
	var zero T

	status, payload, err := c.do(ctx, route, params, query, body)
	if err != nil {
		return zero, err
	}

	if status != route.SuccessStatus() {
		return zero, apiError(route, status, payload)
	}

	value, err := contract.Decode[T](route, status, payload)
	if err != nil {
		return zero, eris.Wrapf(err, "%s: unexpected response", route.Name)
	}
	return value, nil
}

func (c *Client) do(ctx context.Context, route contract.Route, params map[string]string, query url.Values, body any) (int, []byte, error) {
	endpoint := c.baseURL + contract.BuildURL(route.Path, params)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, eris.Wrapf(err, "%s: encoding request body", route.Name)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, endpoint, reader)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "%s: building request", route.Name)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "%s: sending request", route.Name)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrapf(err, "%s: reading response body", route.Name)
	}
	return resp.StatusCode, payload, nil
}

// apiError converts an error response into *APIError, using the documented
// body when the status is part of the route's contract.
func apiError(route contract.Route, status int, payload []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	decoded, err := route.DecodeResponse(status, payload)
	if err != nil {
		var body contract.MessageBody
		if json.Unmarshal(payload, &body) == nil && strings.TrimSpace(body.Message) != "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}

	switch body := decoded.(type) {
	case contract.ValidationErrorBody:
		apiErr.Message = body.Message
		apiErr.Field = body.Field
	case contract.MessageBody:
		apiErr.Message = body.Message
	}
	return apiErr
}
