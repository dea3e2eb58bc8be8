package cli

import (
	"context"
	"time"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/sessionfile"
	"github.com/mgpai22/subedit/internal/store"
)

// summary of one stored session
type topicInfo struct {
	TopicID   string
	Lines     int
	History   int
	Language  string
	UpdatedAt time.Time
}

// backend is a session store the CLI can also list and prune.
type backend interface {
	session.Store
	Topics(ctx context.Context) ([]topicInfo, error)
	Remove(ctx context.Context, topicID string) error
	Close() error
}

type sqliteBackend struct {
	*store.Store
}

func (b *sqliteBackend) Topics(ctx context.Context) ([]topicInfo, error) {
	summaries, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]topicInfo, len(summaries))
	for i, s := range summaries {
		out[i] = topicInfo{
			TopicID:   s.TopicID,
			Lines:     s.Lines,
			History:   s.History,
			Language:  s.Language,
			UpdatedAt: s.UpdatedAt,
		}
	}
	return out, nil
}

func (b *sqliteBackend) Remove(ctx context.Context, topicID string) error {
	return b.Delete(ctx, topicID)
}

type fileBackend struct {
	*sessionfile.Store
}

func (b *fileBackend) Topics(ctx context.Context) ([]topicInfo, error) {
	names, err := b.Store.Topics()
	if err != nil {
		return nil, err
	}
	out := make([]topicInfo, 0, len(names))
	for _, name := range names {
		rec, err := b.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, topicInfo{
			TopicID:   rec.TopicID,
			Lines:     len(rec.Lines),
			History:   len(rec.History),
			Language:  rec.Language,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

func (b *fileBackend) Remove(ctx context.Context, topicID string) error {
	return b.Delete(topicID)
}

func (b *fileBackend) Close() error {
	return nil
}
