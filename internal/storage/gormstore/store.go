// Package gormstore implements storage.Store with Gorm's query builder.
package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio/app/internal/content"
	appdb "portfolio/app/internal/db"
	"portfolio/app/internal/storage"
)

// Store persists content using a Gorm database connection.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore constructs a Gorm-backed store.
func NewStore(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// ListPosts returns posts newest first, optionally restricted to one type.
func (s *Store) ListPosts(ctx context.Context, postType *content.PostType) ([]content.Post, error) {
	var records []PostRecord

	query := s.db.WithContext(ctx).Order("published_at DESC").Order("id DESC")
	if postType != nil {
		query = query.Where("type = ?", string(*postType))
	}

	if err := query.Find(&records).Error; err != nil {
		s.logError(typeFields(postType), err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}

	posts := make([]content.Post, 0, len(records))
	for i := range records {
		posts = append(posts, records[i].toContent())
	}
	return posts, nil
}

// GetPostBySlug returns the post for the provided slug or nil when not found.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*content.Post, error) {
	var record PostRecord

	err := s.db.WithContext(ctx).First(&record, "slug = ?", slug).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logError(logrus.Fields{"slug": slug}, err, "fetching post by slug")
		return nil, eris.Wrapf(err, "fetching post by slug: %s", slug)
	}

	post := record.toContent()
	return &post, nil
}

// CreatePost stores a new post. It returns storage.ErrConflict when the slug already exists.
func (s *Store) CreatePost(ctx context.Context, input content.InsertPost) (*content.Post, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	publishedAt := s.now()
	if input.PublishedAt != nil {
		publishedAt = *input.PublishedAt
	}

	record := &PostRecord{
		Slug:        input.Slug,
		Title:       input.Title,
		Content:     input.Content,
		Type:        string(input.Type),
		PublishedAt: content.Timestamp(publishedAt),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		fields := logrus.Fields{"slug": input.Slug}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logError(fields, err, "creating post with duplicate slug")
			return nil, eris.Wrapf(storage.ErrConflict, "post with slug %s", input.Slug)
		}
		s.logError(fields, err, "creating post")
		return nil, eris.Wrapf(err, "creating post: %s", input.Slug)
	}

	post := record.toContent()
	return &post, nil
}

// ListBeliefs returns beliefs ascending by their display order.
func (s *Store) ListBeliefs(ctx context.Context) ([]content.Belief, error) {
	var records []BeliefRecord

	orderColumn := clause.OrderByColumn{Column: clause.Column{Name: "order"}}
	if err := s.db.WithContext(ctx).Order(orderColumn).Order("id ASC").Find(&records).Error; err != nil {
		s.logError(nil, err, "listing beliefs")
		return nil, eris.Wrap(err, "listing beliefs")
	}

	beliefs := make([]content.Belief, 0, len(records))
	for i := range records {
		beliefs = append(beliefs, records[i].toContent())
	}
	return beliefs, nil
}

// CreateBelief stores a new belief.
func (s *Store) CreateBelief(ctx context.Context, input content.InsertBelief) (*content.Belief, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	record := &BeliefRecord{Content: input.Content, Order: input.Order}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logError(logrus.Fields{"order": input.Order}, err, "creating belief")
		return nil, eris.Wrap(err, "creating belief")
	}

	belief := record.toContent()
	return &belief, nil
}

// ListNowUpdates returns now updates newest first.
func (s *Store) ListNowUpdates(ctx context.Context) ([]content.NowUpdate, error) {
	var records []NowUpdateRecord

	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		s.logError(nil, err, "listing now updates")
		return nil, eris.Wrap(err, "listing now updates")
	}

	updates := make([]content.NowUpdate, 0, len(records))
	for i := range records {
		updates = append(updates, records[i].toContent())
	}
	return updates, nil
}

// CreateNowUpdate stores a new now update stamped with the current time.
func (s *Store) CreateNowUpdate(ctx context.Context, input content.InsertNowUpdate) (*content.NowUpdate, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	record := &NowUpdateRecord{Content: input.Content, CreatedAt: content.Timestamp(s.now())}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logError(nil, err, "creating now update")
		return nil, eris.Wrap(err, "creating now update")
	}

	update := record.toContent()
	return &update, nil
}

// CreateMessage stores a contact form submission.
func (s *Store) CreateMessage(ctx context.Context, input content.InsertMessage) (*content.Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	record := &MessageRecord{
		Name:      input.Name,
		Email:     input.Email,
		Message:   input.Message,
		CreatedAt: content.Timestamp(s.now()),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logError(logrus.Fields{"email": input.Email}, err, "creating message")
		return nil, eris.Wrap(err, "creating message")
	}

	message := record.toContent()
	return &message, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := appdb.SQLDB(s.db)
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return eris.Wrap(err, "pinging database")
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return appdb.Close(s.db)
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

func typeFields(postType *content.PostType) logrus.Fields {
	if postType == nil {
		return nil
	}
	return logrus.Fields{"type": string(*postType)}
}
