// Package contract is the single definition of the content API: each
// operation's method, path template, input validator, and the body shape
// expected for every status code. The HTTP server registers its handlers
// from it and the client parses responses with it.
package contract

import (
	"net/http"
	"sort"
	"strings"

	"portfolio/app/internal/content"
)

// Response describes the body returned for one status code.
type Response struct {
	Description string
	// Body is a zero value of the body type. Decoded bodies are validated
	// when the type (or its slice element type) has a Validate method.
	Body any
}

// Route binds an operation name to its HTTP surface.
type Route struct {
	Name      string
	Method    string
	Path      string
	Summary   string
	Input     any
	Responses map[int]Response
}

// ValidationErrorBody is returned with 400 responses.
type ValidationErrorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageBody is returned with 404 and 500 responses.
type MessageBody struct {
	Message string `json:"message"`
}

// Validate requires a non-empty message.
func (b ValidationErrorBody) Validate() error {
	return requireMessage(b.Message)
}

// Validate requires a non-empty message.
func (b MessageBody) Validate() error {
	return requireMessage(b.Message)
}

// PostsQuery is the optional filter accepted by posts.list.
type PostsQuery struct {
	Type string `query:"type" doc:"Restrict the list to one post type: thinking or kue"`
}

// Validate rejects unknown post types. An empty type means no filter.
func (q PostsQuery) Validate() error {
	_, err := q.PostType()
	return err
}

// PostType returns the requested filter or nil when none was given.
func (q PostsQuery) PostType() (*content.PostType, error) {
	if strings.TrimSpace(q.Type) == "" {
		return nil, nil
	}
	postType, err := content.ParsePostType(q.Type)
	if err != nil {
		return nil, err
	}
	return &postType, nil
}

const (
	MessagePostNotFound  = "Post not found"
	MessageInternalError = "Internal server error"
	MessageInvalidJSON   = "Invalid JSON body"
	MessageBodyTooLarge  = "Request body is too large"
	MessageRateLimited   = "Too many requests, please slow down"
)

var internalError = Response{Description: "Unexpected server failure", Body: MessageBody{}}

var (
	PostsList = Route{
		Name:    "posts.list",
		Method:  http.MethodGet,
		Path:    "/api/posts",
		Summary: "List posts, newest first",
		Input:   PostsQuery{},
		Responses: map[int]Response{
			http.StatusOK:                  {Description: "Posts ordered by publishedAt descending", Body: []content.Post{}},
			http.StatusBadRequest:          {Description: "Unknown post type", Body: ValidationErrorBody{}},
			http.StatusInternalServerError: internalError,
		},
	}

	PostsGet = Route{
		Name:    "posts.get",
		Method:  http.MethodGet,
		Path:    "/api/posts/:slug",
		Summary: "Fetch a post by slug",
		Responses: map[int]Response{
			http.StatusOK:                  {Description: "The post", Body: content.Post{}},
			http.StatusNotFound:            {Description: "No post has this slug", Body: MessageBody{}},
			http.StatusInternalServerError: internalError,
		},
	}

	BeliefsList = Route{
		Name:    "beliefs.list",
		Method:  http.MethodGet,
		Path:    "/api/beliefs",
		Summary: "List beliefs in display order",
		Responses: map[int]Response{
			http.StatusOK:                  {Description: "Beliefs ordered by order ascending", Body: []content.Belief{}},
			http.StatusInternalServerError: internalError,
		},
	}

	NowList = Route{
		Name:    "now.list",
		Method:  http.MethodGet,
		Path:    "/api/now",
		Summary: "List now updates, newest first",
		Responses: map[int]Response{
			http.StatusOK:                  {Description: "Updates ordered by createdAt descending", Body: []content.NowUpdate{}},
			http.StatusInternalServerError: internalError,
		},
	}

	ContactCreate = Route{
		Name:    "contact.create",
		Method:  http.MethodPost,
		Path:    "/api/contact",
		Summary: "Submit a contact message",
		Input:   content.InsertMessage{},
		Responses: map[int]Response{
			http.StatusCreated:             {Description: "The stored message", Body: content.Message{}},
			http.StatusBadRequest:          {Description: "Submission failed validation", Body: ValidationErrorBody{}},
			http.StatusInternalServerError: internalError,
		},
	}
)

// All returns every route in registration order.
func All() []Route {
	return []Route{PostsList, PostsGet, BeliefsList, NowList, ContactCreate}
}

// OperationID returns a router-safe identifier derived from the route name.
func (r Route) OperationID() string {
	return strings.ReplaceAll(r.Name, ".", "-")
}

// OpenAPIPath rewrites `:param` segments as `{param}`.
func (r Route) OpenAPIPath() string {
	segments := strings.Split(r.Path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// Statuses returns the documented status codes in ascending order.
func (r Route) Statuses() []int {
	statuses := make([]int, 0, len(r.Responses))
	for status := range r.Responses {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	return statuses
}

// SuccessStatus returns the lowest documented 2xx status.
func (r Route) SuccessStatus() int {
	for _, status := range r.Statuses() {
		if status >= 200 && status < 300 {
			return status
		}
	}
	return http.StatusOK
}

// BuildURL replaces each `:name` segment of path with params[name].
// Values are inserted literally; callers escape them when needed.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		if value, ok := params[segment[1:]]; ok {
			segments[i] = value
		}
	}
	return strings.Join(segments, "/")
}
