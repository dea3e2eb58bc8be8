package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/subedit/internal/history"
	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/transcript"
)

var _ session.Store = (*Store)(nil)

// Summary describes a stored session without its lines.
type Summary struct {
	TopicID   string
	Lines     int
	History   int
	Language  string
	UpdatedAt time.Time
}

// Save replaces the stored state of rec.TopicID in one transaction.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.TopicID == "" {
		return errors.New("record has no topic id")
	}
	ctx = ensureContext(ctx)

	baseJSON, err := json.Marshal(rec.Base)
	if err != nil {
		return fmt.Errorf("marshal base lines: %w", err)
	}
	var transcriptJSON any
	if rec.Transcript != nil {
		data, err := json.Marshal(rec.Transcript)
		if err != nil {
			return fmt.Errorf("marshal transcript: %w", err)
		}
		transcriptJSON = string(data)
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin save tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (topic_id, header, frame_rate, word_limit, language, base_json, transcript_json, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(topic_id) DO UPDATE SET
                 header = excluded.header,
                 frame_rate = excluded.frame_rate,
                 word_limit = excluded.word_limit,
                 language = excluded.language,
                 base_json = excluded.base_json,
                 transcript_json = excluded.transcript_json,
                 updated_at = excluded.updated_at`,
			nullableString(rec.Header),
			rec.FrameRate,
			rec.WordLimit,
			nullableString(rec.Language),
			string(baseJSON),
			transcriptJSON,
			updated.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		for _, table := range []string{"lines", "history"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE topic_id = ?`, rec.TopicID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i, line := range rec.Lines {
			data, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("marshal line %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lines (topic_id, position, line_id, line_json) VALUES (?, ?, ?, ?)`,
				rec.TopicID, i, line.ID, string(data),
			); err != nil {
				return fmt.Errorf("insert line %d: %w", i, err)
			}
		}

		for i, entry := range rec.History {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("marshal history entry %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO history (topic_id, position, action, undo_executed, entry_json) VALUES (?, ?, ?, ?, ?)`,
				rec.TopicID, i, string(entry.Action()), boolToInt(entry.UndoExecuted), string(data),
			); err != nil {
				return fmt.Errorf("insert history entry %d: %w", i, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit save: %w", err)
		}
		return nil
	})
}

// Load reads a stored session. A missing topic returns session.ErrNotFound.
func (s *Store) Load(ctx context.Context, topicID string) (*session.Record, error) {
	ctx = ensureContext(ctx)

	var (
		header         sql.NullString
		language       sql.NullString
		transcriptJSON sql.NullString
		baseJSON       string
		updatedRaw     string
	)
	rec := &session.Record{TopicID: topicID}
	err := s.db.QueryRowContext(ctx,
		`SELECT header, frame_rate, word_limit, language, base_json, transcript_json, updated_at
         FROM sessions WHERE topic_id = ?`, topicID,
	).Scan(&header, &rec.FrameRate, &rec.WordLimit, &language, &baseJSON, &transcriptJSON, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %s: %w", topicID, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	rec.Header = header.String
	rec.Language = language.String
	rec.UpdatedAt = parseTime(updatedRaw)

	if err := json.Unmarshal([]byte(baseJSON), &rec.Base); err != nil {
		return nil, fmt.Errorf("decode base lines: %w", err)
	}
	if transcriptJSON.Valid {
		var spans []transcript.Span
		if err := json.Unmarshal([]byte(transcriptJSON.String), &spans); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		rec.Transcript = spans
	}

	rec.Lines, err = s.loadLines(ctx, topicID)
	if err != nil {
		return nil, err
	}
	rec.History, err = s.loadHistory(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) loadLines(ctx context.Context, topicID string) ([]*subtitle.Line, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line_json FROM lines WHERE topic_id = ? ORDER BY position`, topicID)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	lines := []*subtitle.Line{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		var line subtitle.Line
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("decode line: %w", err)
		}
		lines = append(lines, &line)
	}
	return lines, rows.Err()
}

// loadHistory decodes entries one by one; an entry that no longer decodes
// is an error, since dropping it would shift every later position.
func (s *Store) loadHistory(ctx context.Context, topicID string) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, entry_json FROM history WHERE topic_id = ? ORDER BY position`, topicID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var (
			position int
			raw      string
		)
		if err := rows.Scan(&position, &raw); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		var entry history.Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode history entry %d: %w", position, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// List returns stored sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.topic_id, s.language, s.updated_at,
                (SELECT COUNT(1) FROM lines l WHERE l.topic_id = s.topic_id),
                (SELECT COUNT(1) FROM history h WHERE h.topic_id = s.topic_id)
         FROM sessions s ORDER BY s.updated_at DESC, s.topic_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum        Summary
			language   sql.NullString
			updatedRaw string
		)
		if err := rows.Scan(&sum.TopicID, &language, &updatedRaw, &sum.Lines, &sum.History); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Language = language.String
		sum.UpdatedAt = parseTime(updatedRaw)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session with its lines and history.
func (s *Store) Delete(ctx context.Context, topicID string) error {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE topic_id = ?`, topicID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("topic %s: %w", topicID, session.ErrNotFound)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
