// Package storage defines the backend-agnostic persistence interface for
// site content. Implementations live in the subpackages.
package storage

import (
	"context"

	"github.com/rotisserie/eris"

	"portfolio/app/internal/content"
)

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = eris.New("record already exists")

// Store executes the content reads and writes against a relational backend.
//
// Single-row lookups return a nil record and a nil error when nothing
// matches so callers can tell "absent" from a backend failure.
type Store interface {
	ListPosts(ctx context.Context, postType *content.PostType) ([]content.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*content.Post, error)
	CreatePost(ctx context.Context, input content.InsertPost) (*content.Post, error)

	ListBeliefs(ctx context.Context) ([]content.Belief, error)
	CreateBelief(ctx context.Context, input content.InsertBelief) (*content.Belief, error)

	ListNowUpdates(ctx context.Context) ([]content.NowUpdate, error)
	CreateNowUpdate(ctx context.Context, input content.InsertNowUpdate) (*content.NowUpdate, error)

	CreateMessage(ctx context.Context, input content.InsertMessage) (*content.Message, error)

	Ping(ctx context.Context) error
	Close() error
}
