// Package sqlite persists listener profiles in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
)

var ErrNotFound = errors.New("profile not stored")

// Store implements profile persistence on SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		favorite_genres TEXT NOT NULL DEFAULT '[]',
		preferred_tempo TEXT NOT NULL DEFAULT 'medium',
		listening_hours TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS mood_history (
		profile_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		emotion TEXT NOT NULL,
		intensity INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		playlist_id TEXT NOT NULL DEFAULT '',
		time_of_day TEXT NOT NULL,
		PRIMARY KEY (profile_id, seq),
		FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS recent_plays (
		profile_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		track_id TEXT NOT NULL,
		PRIMARY KEY (profile_id, seq),
		FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE
	);
	`)
	return err
}

// SaveProfile upserts the profile and replaces its history and recent plays.
func (s *Store) SaveProfile(ctx context.Context, p *listener.Profile) error {
	genres, err := json.Marshal(p.Preferences.FavoriteGenres)
	if err != nil {
		return errors.Wrap(err, "failed to encode favorite genres")
	}
	hours, err := json.Marshal(p.Preferences.ListeningHours)
	if err != nil {
		return errors.Wrap(err, "failed to encode listening hours")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, email, created_at, favorite_genres, preferred_tempo, listening_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name=excluded.display_name,
			email=excluded.email,
			favorite_genres=excluded.favorite_genres,
			preferred_tempo=excluded.preferred_tempo,
			listening_hours=excluded.listening_hours
	`, p.ID, p.DisplayName, p.Email, p.CreatedAt.Format(time.RFC3339Nano),
		string(genres), string(p.Preferences.PreferredTempo), string(hours)); err != nil {
		return errors.Wrapf(err, "failed to save profile %s", p.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM mood_history WHERE profile_id = ?", p.ID); err != nil {
		return errors.Wrap(err, "failed to clear mood history")
	}
	stmtHistory, err := tx.PrepareContext(ctx, `
		INSERT INTO mood_history (profile_id, seq, emotion, intensity, recorded_at, playlist_id, time_of_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare history insert")
	}
	defer stmtHistory.Close()
	for i, e := range p.History() {
		if _, err := stmtHistory.ExecContext(ctx, p.ID, i, string(e.Emotion), e.Intensity,
			e.Timestamp.Format(time.RFC3339Nano), e.PlaylistID, string(e.TimeOfDay)); err != nil {
			return errors.Wrapf(err, "failed to save history entry %d", i)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recent_plays WHERE profile_id = ?", p.ID); err != nil {
		return errors.Wrap(err, "failed to clear recent plays")
	}
	for i, id := range p.RecentPlays() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recent_plays (profile_id, seq, track_id) VALUES (?, ?, ?)", p.ID, i, id); err != nil {
			return errors.Wrapf(err, "failed to save recent play %s", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "transaction commit failed")
	}
	return nil
}

// LoadProfile reads one profile.
func (s *Store) LoadProfile(ctx context.Context, id string) (*listener.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, created_at, favorite_genres, preferred_tempo, listening_hours
		FROM profiles WHERE id = ?`, id)
	p, err := s.scanProfile(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return p, err
}

// LoadProfiles reads every stored profile, oldest first.
func (s *Store) LoadProfiles(ctx context.Context) ([]*listener.Profile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM profiles ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list profiles")
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan profile id")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate profiles")
	}

	profiles := make([]*listener.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := s.LoadProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// DeleteProfile removes a profile and everything recorded for it.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM mood_history WHERE profile_id = ?",
		"DELETE FROM recent_plays WHERE profile_id = ?",
		"DELETE FROM profiles WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return errors.Wrapf(err, "failed to delete profile %s", id)
		}
	}
	return errors.Wrap(tx.Commit(), "transaction commit failed")
}

func (s *Store) scanProfile(ctx context.Context, row *sql.Row) (*listener.Profile, error) {
	var (
		id, name, email, created, genres, tempo, hours string
	)
	if err := row.Scan(&id, &name, &email, &created, &genres, &tempo, &hours); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to load profile")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s: bad created_at", id)
	}

	prefs := listener.NewPreferences()
	if err := json.Unmarshal([]byte(genres), &prefs.FavoriteGenres); err != nil {
		return nil, errors.Wrapf(err, "profile %s: bad favorite_genres", id)
	}
	stored := map[listener.TimeOfDay]int{}
	if err := json.Unmarshal([]byte(hours), &stored); err != nil {
		return nil, errors.Wrapf(err, "profile %s: bad listening_hours", id)
	}
	for k, v := range stored {
		prefs.ListeningHours[k] = v
	}
	if t, err := track.ParseTempo(tempo); err == nil {
		prefs.PreferredTempo = t
	}

	history, err := s.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.loadRecentPlays(ctx, id)
	if err != nil {
		return nil, err
	}

	return listener.Restore(id, name, email, createdAt, prefs, history, recent), nil
}

func (s *Store) loadHistory(ctx context.Context, id string) ([]listener.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT emotion, intensity, recorded_at, playlist_id, time_of_day
		FROM mood_history WHERE profile_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load mood history")
	}
	defer rows.Close()

	var history []listener.HistoryEntry
	for rows.Next() {
		var (
			e                listener.HistoryEntry
			emotion, at, tod string
		)
		if err := rows.Scan(&emotion, &e.Intensity, &at, &e.PlaylistID, &tod); err != nil {
			return nil, errors.Wrap(err, "failed to scan mood history")
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, errors.Wrapf(err, "profile %s: bad recorded_at", id)
		}
		e.Emotion = mood.Emotion(emotion)
		e.TimeOfDay = listener.TimeOfDay(tod)
		history = append(history, e)
	}
	return history, errors.Wrap(rows.Err(), "failed to iterate mood history")
}

func (s *Store) loadRecentPlays(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT track_id FROM recent_plays WHERE profile_id = ? ORDER BY seq ASC", id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent plays")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var trackID string
		if err := rows.Scan(&trackID); err != nil {
			return nil, errors.Wrap(err, "failed to scan recent play")
		}
		ids = append(ids, trackID)
	}
	return ids, errors.Wrap(rows.Err(), "failed to iterate recent plays")
}
