// Package reststore implements storage.Store against a PostgREST endpoint,
// the REST layer managed Postgres hosts such as Supabase expose.
package reststore

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
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/content"
	"portfolio/app/internal/storage"
)

const (
	restPrefix        = "/rest/v1"
	jsonContentType   = "application/json"
	singleObjectType  = "application/vnd.pgrst.object+json"
	codeNoRows        = "PGRST116"
	codeUniqueViolate = "23505"
	defaultTimeout    = 10 * time.Second
)

// Options configures the PostgREST client.
type Options struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Store talks to PostgREST over HTTP.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

var _ storage.Store = (*Store)(nil)

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postgrest %d %s: %s", e.Status, e.Code, e.Message)
}

// NewStore validates the options and builds a Store.
func NewStore(opts Options) (*Store, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if base == "" {
		return nil, eris.New("postgrest url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, eris.Wrapf(err, "invalid postgrest url: %s", base)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("postgrest api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Store{
		baseURL: base + restPrefix,
		apiKey:  opts.APIKey,
		client:  client,
		logger:  opts.Logger,
	}, nil
}

// ListPosts returns posts newest first, optionally restricted to one type.
func (s *Store) ListPosts(ctx context.Context, postType *content.PostType) ([]content.Post, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"published_at.desc,id.desc"},
	}
	if postType != nil {
		query.Set("type", "eq."+string(*postType))
	}

	var rows []postRow
	if err := s.do(ctx, http.MethodGet, "posts", query, nil, false, &rows); err != nil {
		s.logError(nil, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}

	posts := make([]content.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toContent())
	}
	return posts, nil
}

// GetPostBySlug returns the post for the provided slug or nil when not found.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*content.Post, error) {
	query := url.Values{
		"select": {"*"},
		"slug":   {"eq." + slug},
	}

	var row postRow
	if err := s.do(ctx, http.MethodGet, "posts", query, nil, true, &row); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		s.logError(logrus.Fields{"slug": slug}, err, "fetching post by slug")
		return nil, eris.Wrapf(err, "fetching post by slug: %s", slug)
	}

	post := row.toContent()
	return &post, nil
}

// CreatePost stores a new post. It returns storage.ErrConflict when the slug already exists.
func (s *Store) CreatePost(ctx context.Context, input content.InsertPost) (*content.Post, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	payload := postInsert{
		Slug:    input.Slug,
		Title:   input.Title,
		Content: input.Content,
		Type:    string(input.Type),
	}
	if input.PublishedAt != nil {
		publishedAt := content.Timestamp(*input.PublishedAt)
		payload.PublishedAt = &publishedAt
	}

	var row postRow
	if err := s.insert(ctx, "posts", payload, &row); err != nil {
		fields := logrus.Fields{"slug": input.Slug}
		if isUniqueViolation(err) {
			s.logError(fields, err, "creating post with duplicate slug")
			return nil, eris.Wrapf(storage.ErrConflict, "post with slug %s", input.Slug)
		}
		s.logError(fields, err, "creating post")
		return nil, eris.Wrapf(err, "creating post: %s", input.Slug)
	}

	post := row.toContent()
	return &post, nil
}

// ListBeliefs returns beliefs ascending by their display order.
func (s *Store) ListBeliefs(ctx context.Context) ([]content.Belief, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"order.asc,id.asc"},
	}

	var rows []beliefRow
	if err := s.do(ctx, http.MethodGet, "beliefs", query, nil, false, &rows); err != nil {
		s.logError(nil, err, "listing beliefs")
		return nil, eris.Wrap(err, "listing beliefs")
	}

	beliefs := make([]content.Belief, 0, len(rows))
	for _, row := range rows {
		beliefs = append(beliefs, row.toContent())
	}
	return beliefs, nil
}

// CreateBelief stores a new belief.
func (s *Store) CreateBelief(ctx context.Context, input content.InsertBelief) (*content.Belief, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var row beliefRow
	if err := s.insert(ctx, "beliefs", input, &row); err != nil {
		s.logError(logrus.Fields{"order": input.Order}, err, "creating belief")
		return nil, eris.Wrap(err, "creating belief")
	}

	belief := row.toContent()
	return &belief, nil
}

// ListNowUpdates returns now updates newest first.
func (s *Store) ListNowUpdates(ctx context.Context) ([]content.NowUpdate, error) {
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc,id.desc"},
	}

	var rows []nowUpdateRow
	if err := s.do(ctx, http.MethodGet, "now_updates", query, nil, false, &rows); err != nil {
		s.logError(nil, err, "listing now updates")
		return nil, eris.Wrap(err, "listing now updates")
	}

	updates := make([]content.NowUpdate, 0, len(rows))
	for _, row := range rows {
		updates = append(updates, row.toContent())
	}
	return updates, nil
}

// CreateNowUpdate stores a new now update.
func (s *Store) CreateNowUpdate(ctx context.Context, input content.InsertNowUpdate) (*content.NowUpdate, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var row nowUpdateRow
	if err := s.insert(ctx, "now_updates", input, &row); err != nil {
		s.logError(nil, err, "creating now update")
		return nil, eris.Wrap(err, "creating now update")
	}

	update := row.toContent()
	return &update, nil
}

// CreateMessage stores a contact form submission.
func (s *Store) CreateMessage(ctx context.Context, input content.InsertMessage) (*content.Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var row messageRow
	if err := s.insert(ctx, "messages", input, &row); err != nil {
		s.logError(logrus.Fields{"email": input.Email}, err, "creating message")
		return nil, eris.Wrap(err, "creating message")
	}

	message := row.toContent()
	return &message, nil
}

// Ping issues a minimal read to confirm the endpoint and key are usable.
func (s *Store) Ping(ctx context.Context) error {
	query := url.Values{"select": {"id"}, "limit": {"1"}}

	var rows []json.RawMessage
	if err := s.do(ctx, http.MethodGet, "beliefs", query, nil, false, &rows); err != nil {
		return eris.Wrap(err, "pinging postgrest")
	}
	return nil
}

// Close drops idle keep-alive connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) insert(ctx context.Context, table string, payload any, out any) error {
	return s.do(ctx, http.MethodPost, table, url.Values{"select": {"*"}}, payload, true, out)
}

func (s *Store) do(ctx context.Context, method, table string, query url.Values, payload any, single bool, out any) error {
	endpoint := s.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return eris.Wrap(err, "building request")
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if single {
		req.Header.Set("Accept", singleObjectType)
	} else {
		req.Header.Set("Accept", jsonContentType)
	}
	if payload != nil {
		req.Header.Set("Content-Type", jsonContentType)
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s", method, table)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "decoding response body")
	}
	return nil
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func isNoRows(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeNoRows
}

func isUniqueViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeUniqueViolate || apiErr.Status == http.StatusConflict
}
