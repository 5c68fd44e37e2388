// Package catalogfile reads and writes the JSON song catalog.
package catalogfile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Load reads the catalog at path. Entries that fail validation are logged and skipped.
func Load(ctx context.Context, path string) ([]*track.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	var records []track.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "failed to parse catalog file %s", path)
	}

	tracks := make([]*track.Track, 0, len(records))
	for i, r := range records {
		t, err := track.FromRecord(r)
		if err != nil {
			zlog.Warn().Msgf("catalog entry %d skipped: %v", i, err)
			continue
		}
		tracks = append(tracks, t)
	}

	zlog.Info().Msgf("loaded %d of %d catalog entries from %s", len(tracks), len(records), path)
	return tracks, nil
}

// Save writes tracks to path in the catalog format, replacing the file atomically.
func Save(ctx context.Context, path string, tracks []*track.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]track.Record, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, t.Record())
	}
	if err := writeFile(path, records); err != nil {
		return err
	}
	zlog.Info().Msgf("saved %d catalog entries to %s", len(records), path)
	return nil
}

// UpdatePlayCounts rewrites the play_count of the entries at path whose
// song_id is in counts. Every other entry, including ones Load would skip,
// is written back unchanged.
func UpdatePlayCounts(ctx context.Context, path string, counts map[string]int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read catalog file")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrapf(err, "failed to parse catalog file %s", path)
	}

	updated := 0
	for i, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		var key struct {
			SongID    string `json:"song_id"`
			PlayCount int    `json:"play_count"`
		}
		if err := json.Unmarshal(raw, &key); err != nil {
			continue
		}
		n, ok := counts[key.SongID]
		if !ok || n == key.PlayCount {
			continue
		}
		fields["play_count"] = json.RawMessage(strconv.Itoa(n))
		if entries[i], err = json.Marshal(fields); err != nil {
			return errors.Wrapf(err, "failed to encode catalog entry %d", i)
		}
		updated++
	}

	if updated == 0 {
		return nil
	}
	if err := writeFile(path, entries); err != nil {
		return err
	}
	zlog.Info().Msgf("updated play counts of %d catalog entries in %s", updated, path)
	return nil
}

func writeFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode catalog")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write catalog")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close catalog")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to replace catalog file")
	}
	return nil
}
