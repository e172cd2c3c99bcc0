// Package pgstore implements storage.Store with hand-written SQL over a
// pgx connection pool.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"portfolio/app/internal/content"
	"portfolio/app/internal/storage"
)

const uniqueViolation = "23505"

const (
	postColumns    = `id, slug, title, content, type, published_at`
	beliefColumns  = `id, content, "order"`
	nowColumns     = `id, content, created_at`
	messageColumns = `id, name, email, message, created_at`
)

// Options controls how the pgx pool is created.
type Options struct {
	DSN      string
	MaxConns int32
	Logger   *logrus.Logger
}

// Store persists content through a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

var _ storage.Store = (*Store)(nil)

// Open creates a pool for the DSN and verifies connectivity.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, eris.New("database connection string is required")
	}

	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "parsing postgres dsn")
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "connecting to postgres")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pinging postgres")
	}

	return NewStore(pool, opts.Logger)
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool, logger *logrus.Logger) (*Store, error) {
	if pool == nil {
		return nil, eris.New("pgx pool is required")
	}
	return &Store{pool: pool, logger: logger}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id           BIGSERIAL PRIMARY KEY,
		slug         TEXT        NOT NULL UNIQUE,
		title        TEXT        NOT NULL,
		content      TEXT        NOT NULL,
		type         TEXT        NOT NULL,
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_type ON posts (type)`,
	`CREATE TABLE IF NOT EXISTS beliefs (
		id      BIGSERIAL PRIMARY KEY,
		content TEXT    NOT NULL,
		"order" INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS now_updates (
		id         BIGSERIAL PRIMARY KEY,
		content    TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT        NOT NULL,
		email      TEXT        NOT NULL,
		message    TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the content tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.pool.Exec(ctx, statement); err != nil {
			s.logError(nil, err, "creating content schema")
			return eris.Wrap(err, "creating content schema")
		}
	}
	return nil
}

// ListPosts returns posts newest first, optionally restricted to one type.
func (s *Store) ListPosts(ctx context.Context, postType *content.PostType) ([]content.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var args []any
	if postType != nil {
		query += ` WHERE type = $1`
		args = append(args, string(*postType))
	}
	query += ` ORDER BY published_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logError(nil, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}

	posts, err := pgx.CollectRows(rows, collect(scanPost))
	if err != nil {
		s.logError(nil, err, "scanning posts")
		return nil, eris.Wrap(err, "scanning posts")
	}
	return posts, nil
}

// GetPostBySlug returns the post for the provided slug or nil when not found.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*content.Post, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logError(logrus.Fields{"slug": slug}, err, "fetching post by slug")
		return nil, eris.Wrapf(err, "fetching post by slug: %s", slug)
	}
	return &post, nil
}

// CreatePost stores a new post. It returns storage.ErrConflict when the slug already exists.
func (s *Store) CreatePost(ctx context.Context, input content.InsertPost) (*content.Post, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var publishedAt any
	if input.PublishedAt != nil {
		publishedAt = content.Timestamp(*input.PublishedAt)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO posts (slug, title, content, type, published_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))
		 RETURNING `+postColumns,
		input.Slug, input.Title, input.Content, string(input.Type), publishedAt,
	)

	post, err := scanPost(row)
	if err != nil {
		fields := logrus.Fields{"slug": input.Slug}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			s.logError(fields, err, "creating post with duplicate slug")
			return nil, eris.Wrapf(storage.ErrConflict, "post with slug %s", input.Slug)
		}
		s.logError(fields, err, "creating post")
		return nil, eris.Wrapf(err, "creating post: %s", input.Slug)
	}
	return &post, nil
}

// ListBeliefs returns beliefs ascending by their display order.
func (s *Store) ListBeliefs(ctx context.Context) ([]content.Belief, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+beliefColumns+` FROM beliefs ORDER BY "order" ASC, id ASC`)
	if err != nil {
		s.logError(nil, err, "listing beliefs")
		return nil, eris.Wrap(err, "listing beliefs")
	}

	beliefs, err := pgx.CollectRows(rows, collect(scanBelief))
	if err != nil {
		s.logError(nil, err, "scanning beliefs")
		return nil, eris.Wrap(err, "scanning beliefs")
	}
	return beliefs, nil
}

// CreateBelief stores a new belief.
func (s *Store) CreateBelief(ctx context.Context, input content.InsertBelief) (*content.Belief, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO beliefs (content, "order") VALUES ($1, $2) RETURNING `+beliefColumns,
		input.Content, input.Order,
	)

	belief, err := scanBelief(row)
	if err != nil {
		s.logError(logrus.Fields{"order": input.Order}, err, "creating belief")
		return nil, eris.Wrap(err, "creating belief")
	}
	return &belief, nil
}

// ListNowUpdates returns now updates newest first.
func (s *Store) ListNowUpdates(ctx context.Context) ([]content.NowUpdate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+nowColumns+` FROM now_updates ORDER BY created_at DESC, id DESC`)
	if err != nil {
		s.logError(nil, err, "listing now updates")
		return nil, eris.Wrap(err, "listing now updates")
	}

	updates, err := pgx.CollectRows(rows, collect(scanNowUpdate))
	if err != nil {
		s.logError(nil, err, "scanning now updates")
		return nil, eris.Wrap(err, "scanning now updates")
	}
	return updates, nil
}

// CreateNowUpdate stores a new now update.
func (s *Store) CreateNowUpdate(ctx context.Context, input content.InsertNowUpdate) (*content.NowUpdate, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO now_updates (content) VALUES ($1) RETURNING `+nowColumns,
		input.Content,
	)

	update, err := scanNowUpdate(row)
	if err != nil {
		s.logError(nil, err, "creating now update")
		return nil, eris.Wrap(err, "creating now update")
	}
	return &update, nil
}

// CreateMessage stores a contact form submission.
func (s *Store) CreateMessage(ctx context.Context, input content.InsertMessage) (*content.Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (name, email, message) VALUES ($1, $2, $3) RETURNING `+messageColumns,
		input.Name, input.Email, input.Message,
	)

	message, err := scanMessage(row)
	if err != nil {
		s.logError(logrus.Fields{"email": input.Email}, err, "creating message")
		return nil, eris.Wrap(err, "creating message")
	}
	return &message, nil
}

// Ping checks that the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "pinging postgres")
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
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

func collect[T any](scan func(pgx.Row) (T, error)) pgx.RowToFunc[T] {
	return func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	}
}

func scanPost(row pgx.Row) (content.Post, error) {
	var (
		post     content.Post
		postType string
	)
	if err := row.Scan(&post.ID, &post.Slug, &post.Title, &post.Content, &postType, &post.PublishedAt); err != nil {
		return content.Post{}, err
	}
	post.Type = content.PostType(postType)
	post.PublishedAt = content.Timestamp(post.PublishedAt)
	return post, nil
}

func scanBelief(row pgx.Row) (content.Belief, error) {
	var belief content.Belief
	if err := row.Scan(&belief.ID, &belief.Content, &belief.Order); err != nil {
		return content.Belief{}, err
	}
	return belief, nil
}

func scanNowUpdate(row pgx.Row) (content.NowUpdate, error) {
	var update content.NowUpdate
	if err := row.Scan(&update.ID, &update.Content, &update.CreatedAt); err != nil {
		return content.NowUpdate{}, err
	}
	update.CreatedAt = content.Timestamp(update.CreatedAt)
	return update, nil
}

func scanMessage(row pgx.Row) (content.Message, error) {
	var message content.Message
	if err := row.Scan(&message.ID, &message.Name, &message.Email, &message.Message, &message.CreatedAt); err != nil {
		return content.Message{}, err
	}
	message.CreatedAt = content.Timestamp(message.CreatedAt)
	return message, nil
}
