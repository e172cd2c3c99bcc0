package gormstore

import (
	"time"

	"portfolio/app/internal/content"
)

// PostRecord is the persisted form of a content.Post.
type PostRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Slug        string    `gorm:"size:255;uniqueIndex:idx_posts_slug;not null"`
	Title       string    `gorm:"type:text;not null"`
	Content     string    `gorm:"type:text;not null"`
	Type        string    `gorm:"size:32;index:idx_posts_type;not null"`
	PublishedAt time.Time `gorm:"column:published_at;index:idx_posts_published_at;not null"`
}

// TableName defines the table name for the PostRecord model.
func (PostRecord) TableName() string {
	return "posts"
}

// BeliefRecord is the persisted form of a content.Belief.
type BeliefRecord struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	Content string `gorm:"type:text;not null"`
	Order   int    `gorm:"column:order;not null"`
}

func (BeliefRecord) TableName() string {
	return "beliefs"
}

// NowUpdateRecord is the persisted form of a content.NowUpdate.
type NowUpdateRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (NowUpdateRecord) TableName() string {
	return "now_updates"
}

// MessageRecord is the persisted form of a content.Message.
type MessageRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:text;not null"`
	Email     string    `gorm:"type:text;not null"`
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (MessageRecord) TableName() string {
	return "messages"
}

func (r *PostRecord) toContent() content.Post {
	return content.Post{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Content:     r.Content,
		Type:        content.PostType(r.Type),
		PublishedAt: content.Timestamp(r.PublishedAt),
	}
}

func (r *BeliefRecord) toContent() content.Belief {
	return content.Belief{ID: r.ID, Content: r.Content, Order: r.Order}
}

func (r *NowUpdateRecord) toContent() content.NowUpdate {
	return content.NowUpdate{ID: r.ID, Content: r.Content, CreatedAt: content.Timestamp(r.CreatedAt)}
}

func (r *MessageRecord) toContent() content.Message {
	return content.Message{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Message:   r.Message,
		CreatedAt: content.Timestamp(r.CreatedAt),
	}
}
