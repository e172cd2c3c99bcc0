package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"portfolio/app/internal/content"
)

// Status is the lifecycle of a Query or Mutation.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// QueryState is a snapshot of a Query.
type QueryState[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Query tracks one read. Each Fetch replaces the previous outcome; failed
// fetches are not retried.
type Query[T any] struct {
	key   []string
	fetch func(context.Context) (T, error)

	mu    sync.RWMutex
	state QueryState[T]
}

// NewQuery wraps fetch in a Query identified by key.
func NewQuery[T any](fetch func(context.Context) (T, error), key ...string) *Query[T] {
	return &Query[T]{key: key, fetch: fetch}
}

// Key identifies what the query reads, e.g. ["posts", "kue"].
func (q *Query[T]) Key() []string {
	return append([]string(nil), q.key...)
}

// Fetch runs the read and records its outcome.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	q.state.Status = StatusLoading
	q.state.Err = nil
	q.mu.Unlock()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		var zero T
		q.state = QueryState[T]{Status: StatusError, Data: zero, Err: err}
		return zero, err
	}
	q.state = QueryState[T]{Status: StatusSuccess, Data: data}
	return data, nil
}

// State returns the latest snapshot.
func (q *Query[T]) State() QueryState[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// MutationState is a snapshot of a Mutation.
type MutationState[O any] struct {
	Status Status
	Data   O
	Err    error
	// Message holds the server's explanation when the input was rejected.
	Message string
	Field   string
}

// Mutation tracks one write.
type Mutation[I, O any] struct {
	run func(context.Context, I) (O, error)

	mu    sync.RWMutex
	state MutationState[O]
}

// NewMutation wraps run in a Mutation.
func NewMutation[I, O any](run func(context.Context, I) (O, error)) *Mutation[I, O] {
	return &Mutation[I, O]{run: run}
}

// Mutate performs the write and records its outcome.
func (m *Mutation[I, O]) Mutate(ctx context.Context, input I) (O, error) {
	m.mu.Lock()
	m.state = MutationState[O]{Status: StatusLoading}
	m.mu.Unlock()

	data, err := m.run(ctx, input)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		state := MutationState[O]{Status: StatusError, Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			state.Message = apiErr.Message
			state.Field = apiErr.Field
		}
		m.state = state
		return state.Data, err
	}
	m.state = MutationState[O]{Status: StatusSuccess, Data: data}
	return data, nil
}

// Reset returns the mutation to idle.
func (m *Mutation[I, O]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = MutationState[O]{}
}

// State returns the latest snapshot.
func (m *Mutation[I, O]) State() MutationState[O] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Posts returns a query for the post list, optionally filtered by type.
func (c *Client) Posts(postType *content.PostType) *Query[[]content.Post] {
	key := []string{"posts"}
	if postType != nil {
		key = append(key, string(*postType))
	}
	return NewQuery(func(ctx context.Context) ([]content.Post, error) {
		return c.ListPosts(ctx, postType)
	}, key...)
}

// Post returns a query for one post.
func (c *Client) Post(slug string) *Query[*content.Post] {
	return NewQuery(func(ctx context.Context) (*content.Post, error) {
		return c.GetPost(ctx, slug)
	}, "post", slug)
}

// Beliefs returns a query for the belief list.
func (c *Client) Beliefs() *Query[[]content.Belief] {
	return NewQuery(c.ListBeliefs, "beliefs")
}

// NowUpdates returns a query for the now update list.
func (c *Client) NowUpdates() *Query[[]content.NowUpdate] {
	return NewQuery(c.ListNowUpdates, "now-updates")
}

// SendMessageMutation returns a mutation that submits the contact form.
func (c *Client) SendMessageMutation() *Mutation[content.InsertMessage, *content.Message] {
	return NewMutation(c.SendMessage)
}
