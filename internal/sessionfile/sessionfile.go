// Package sessionfile stores sessions as YAML documents in a directory, one
// file per topic, guarded by an advisory lock so two processes editing the
// same topic do not interleave writes.
package sessionfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/mgpai22/subedit/internal/session"
)

const (
	ext            = ".yaml"
	lockRetryDelay = 50 * time.Millisecond
)

var topicPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store keeps one YAML file per topic under Dir.
type Store struct {
	Dir string
}

var _ session.Store = (*Store)(nil)

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the file that holds topicID.
func (s *Store) Path(topicID string) (string, error) {
	if !topicPattern.MatchString(topicID) {
		return "", fmt.Errorf("invalid topic id %q", topicID)
	}
	return filepath.Join(s.Dir, topicID+ext), nil
}

// Save writes rec while holding the topic's exclusive lock.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	path, err := s.Path(rec.TopicID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.Dir, err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s is locked by another process", rec.TopicID)
	}
	defer func() { _ = lock.Unlock() }()

	return writeFileAtomic(path, data, 0o644)
}

// Load reads topicID while holding a shared lock.
func (s *Store) Load(ctx context.Context, topicID string) (*session.Record, error) {
	path, err := s.Path(topicID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("topic %s: %w", topicID, session.ErrNotFound)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s is locked by another process", topicID)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var rec session.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rec.TopicID == "" {
		rec.TopicID = topicID
	}
	return &rec, nil
}

// Topics lists the stored topic ids in name order.
func (s *Store) Topics() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Dir, err)
	}
	var topics []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		topics = append(topics, strings.TrimSuffix(name, ext))
	}
	sort.Strings(topics)
	return topics, nil
}

// Delete removes the topic file and its lock.
func (s *Store) Delete(topicID string) error {
	path, err := s.Path(topicID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("topic %s: %w", topicID, session.ErrNotFound)
		}
		return err
	}
	_ = os.Remove(path + ".lock")
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames
// it over destPath.
func writeFileAtomic(destPath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	_ = os.Chmod(tmpName, perm)

	if err := os.Rename(tmpName, destPath); err != nil {
		return fmt.Errorf("rename tmp -> dest: %w", err)
	}
	return nil
}
