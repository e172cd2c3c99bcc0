package reststore

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"portfolio/app/internal/content"
)

// pgTime accepts both timestamptz values and bare `timestamp` columns,
// which PostgREST renders without an offset. Offset-less values are UTC.
type pgTime struct {
	time.Time
}

var pgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *pgTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "decoding timestamp")
	}
	raw = strings.TrimSpace(raw)

	for _, layout := range pgTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = content.Timestamp(parsed)
			return nil
		}
	}
	return eris.Errorf("unrecognised timestamp %q", raw)
}

type postRow struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	PublishedAt pgTime `json:"published_at"`
}

type postInsert struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Type        string     `json:"type"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type beliefRow struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type nowUpdateRow struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	CreatedAt pgTime `json:"created_at"`
}

type messageRow struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	CreatedAt pgTime `json:"created_at"`
}

func (r postRow) toContent() content.Post {
	return content.Post{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Content:     r.Content,
		Type:        content.PostType(r.Type),
		PublishedAt: r.PublishedAt.Time,
	}
}

func (r beliefRow) toContent() content.Belief {
	return content.Belief{ID: r.ID, Content: r.Content, Order: r.Order}
}

func (r nowUpdateRow) toContent() content.NowUpdate {
	return content.NowUpdate{ID: r.ID, Content: r.Content, CreatedAt: r.CreatedAt.Time}
}

func (r messageRow) toContent() content.Message {
	return content.Message{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Message:   r.Message,
		CreatedAt: r.CreatedAt.Time,
	}
}
