// Package seed loads the initial portfolio content into an empty store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"portfolio/app/internal/content"
	"portfolio/app/internal/storage"
)

//go:embed seed.yaml
var defaultFixtures []byte

// Fixtures is the content written by Run. Beliefs are stored in list order.
type Fixtures struct {
	Beliefs    []string             `yaml:"beliefs"`
	NowUpdates []string             `yaml:"nowUpdates"`
	Posts      []content.InsertPost `yaml:"posts"`
}

// Summary reports what Run wrote.
type Summary struct {
	Skipped    bool
	Beliefs    int
	NowUpdates int
	Posts      int
}

// Default returns the built-in fixtures.
func Default() (Fixtures, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// LoadFile reads fixtures from a YAML file.
func LoadFile(path string) (Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fixtures{}, eris.Wrapf(err, "opening fixtures %s", path)
	}
	defer file.Close()

	fixtures, err := Load(file)
	if err != nil {
		return Fixtures{}, eris.Wrapf(err, "loading fixtures %s", path)
	}
	return fixtures, nil
}

// Load decodes and validates YAML fixtures.
func Load(r io.Reader) (Fixtures, error) {
	var fixtures Fixtures

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixtures); err != nil {
		return Fixtures{}, eris.Wrap(err, "decoding fixtures")
	}

	if err := fixtures.Validate(); err != nil {
		return Fixtures{}, err
	}
	return fixtures, nil
}

// Validate checks every fixture with the same rules the store applies.
func (f Fixtures) Validate() error {
	for i, text := range f.Beliefs {
		if err := (content.InsertBelief{Content: text, Order: i}).Validate(); err != nil {
			return eris.Wrapf(err, "belief %d", i)
		}
	}
	for i, text := range f.NowUpdates {
		if err := (content.InsertNowUpdate{Content: text}).Validate(); err != nil {
			return eris.Wrapf(err, "now update %d", i)
		}
	}

	seen := make(map[string]struct{}, len(f.Posts))
	for i, post := range f.Posts {
		if err := post.Validate(); err != nil {
			return eris.Wrapf(err, "post %d", i)
		}
		if _, ok := seen[post.Slug]; ok {
			return eris.Errorf("post %d: duplicate slug %s", i, post.Slug)
		}
		seen[post.Slug] = struct{}{}
	}
	return nil
}

// Run writes fixtures into store unless beliefs already exist, in which
// case the store is treated as seeded and left untouched.
func Run(ctx context.Context, store storage.Store, fixtures Fixtures, logger *logrus.Logger) (Summary, error) {
	if store == nil {
		return Summary{}, eris.New("store is required")
	}

	existing, err := store.ListBeliefs(ctx)
	if err != nil {
		return Summary{}, eris.Wrap(err, "checking existing beliefs")
	}
	if len(existing) > 0 {
		logf(logger, nil, "database already seeded")
		return Summary{Skipped: true}, nil
	}

	var summary Summary

	for i, text := range fixtures.Beliefs {
		if _, err := store.CreateBelief(ctx, content.InsertBelief{Content: text, Order: i}); err != nil {
			return summary, eris.Wrapf(err, "seeding belief %d", i)
		}
		summary.Beliefs++
	}
	logf(logger, logrus.Fields{"count": summary.Beliefs}, "seeded beliefs")

	for i, text := range fixtures.NowUpdates {
		if _, err := store.CreateNowUpdate(ctx, content.InsertNowUpdate{Content: text}); err != nil {
			return summary, eris.Wrapf(err, "seeding now update %d", i)
		}
		summary.NowUpdates++
	}
	logf(logger, logrus.Fields{"count": summary.NowUpdates}, "seeded now updates")

	for _, post := range fixtures.Posts {
		if _, err := store.CreatePost(ctx, post); err != nil {
			return summary, eris.Wrapf(err, "seeding post %s", post.Slug)
		}
		summary.Posts++
	}
	logf(logger, logrus.Fields{"count": summary.Posts}, "seeded posts")

	return summary, nil
}

func logf(logger *logrus.Logger, fields logrus.Fields, message string) {
	if logger == nil {
		return
	}
	logger.WithFields(fields).WithField("component", "seed").Info(message)
}

// String renders the summary for command output.
func (s Summary) String() string {
	if s.Skipped {
		return "already seeded"
	}
	return "beliefs=" + strconv.Itoa(s.Beliefs) +
		" now_updates=" + strconv.Itoa(s.NowUpdates) +
		" posts=" + strconv.Itoa(s.Posts)
}
