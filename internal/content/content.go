package content

import (
	"slices"
	"strings"
	"time"
)

// PostType distinguishes essays from case studies.
type PostType string

const (
	PostTypeThinking PostType = "thinking"
	PostTypeKue      PostType = "kue"
)

// PostTypes lists every known post type in display order.
var PostTypes = []PostType{PostTypeThinking, PostTypeKue}

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	return slices.Contains(PostTypes, t)
}

// ParsePostType converts raw input into a PostType, rejecting unknown values.
func ParsePostType(raw string) (PostType, error) {
	postType := PostType(strings.TrimSpace(raw))
	if !postType.Valid() {
		return "", invalid("Invalid post type. Expected "+quotedPostTypes(), "type")
	}
	return postType, nil
}

func quotedPostTypes() string {
	quoted := make([]string, 0, len(PostTypes))
	for _, t := range PostTypes {
		quoted = append(quoted, "'"+string(t)+"'")
	}
	return strings.Join(quoted, " | ")
}

// Post is a long-form essay or case study identified by its slug.
type Post struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Type        PostType  `json:"type" enum:"thinking,kue"`
	PublishedAt time.Time `json:"publishedAt"`
}

// InsertPost holds the caller supplied fields of a Post.
// PublishedAt defaults to the insert time when nil.
type InsertPost struct {
	Slug        string     `json:"slug" yaml:"slug"`
	Title       string     `json:"title" yaml:"title"`
	Content     string     `json:"content" yaml:"content"`
	Type        PostType   `json:"type" yaml:"type"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
}

// Belief is a short statement shown in a fixed order.
type Belief struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// InsertBelief holds the caller supplied fields of a Belief.
type InsertBelief struct {
	Content string `json:"content" yaml:"content"`
	Order   int    `json:"order" yaml:"order"`
}

// NowUpdate is a timestamped status entry.
type NowUpdate struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// InsertNowUpdate holds the caller supplied fields of a NowUpdate.
type InsertNowUpdate struct {
	Content string `json:"content" yaml:"content"`
}

// Message is a contact form submission.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// InsertMessage holds the fields submitted through the contact form.
type InsertMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Timestamp canonicalises t so every backend serialises the same instant identically.
// Postgres keeps microsecond precision, so anything finer is dropped.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
