package filter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/domain/track"
)

func TestFileExistsFilter_Check(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("x"), 0o644))

	tests := []struct {
		name     string
		ref      string
		baseDir  string
		wantOK   bool
		wantCode string
	}{
		{name: "relative path under base dir", ref: "song.mp3", baseDir: dir, wantOK: true},
		{name: "absolute path", ref: filepath.Join(dir, "song.mp3"), wantOK: true},
		{name: "missing file", ref: "missing.mp3", baseDir: dir, wantCode: "file_not_found"},
		{name: "spotify url", ref: "https://open.spotify.com/track/abc", wantOK: true},
		{name: "spotify uri", ref: "spotify:track:abc", wantOK: true},
		{name: "empty reference", ref: "", wantCode: "missing_file_reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFileExistsFilter()
			require.NoError(t, f.ValidateConfig(map[string]any{"base_dir": tt.baseDir}))

			tr, err := track.New("t1", "Song", "Artist", tt.ref)
			require.NoError(t, err)

			result := f.Check(context.Background(), tr, nil)
			assert.Equal(t, tt.wantOK, result.Accepted)
			assert.Equal(t, tt.wantCode, result.Code)
		})
	}
}

func TestFileExistsFilter_ValidateConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.NoError(t, NewFileExistsFilter().ValidateConfig(nil))
	assert.NoError(t, NewFileExistsFilter().ValidateConfig(map[string]any{"base_dir": dir}))
	assert.Error(t, NewFileExistsFilter().ValidateConfig(map[string]any{"base_dir": filepath.Join(dir, "nope")}))
	assert.Error(t, NewFileExistsFilter().ValidateConfig(map[string]any{"base_dir": file}))
}

func TestFilter_AppliesTo(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		source Source
		want   bool
	}{
		{"file exists / catalog file", NewFileExistsFilter(), SourceCatalogFile, true},
		{"file exists / import", NewFileExistsFilter(), SourceImport, false},
		{"duration / import", NewDurationLimitFilter(), SourceImport, true},
		{"duplicate / catalog file", NewDuplicateTrackFilter(), SourceCatalogFile, true},
		{"duplicate / import", NewDuplicateTrackFilter(), SourceImport, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.AppliesTo(tt.source))
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := GetRegistered()
	for _, name := range []string{"file_exists_filter", "duration_limit_filter", "duplicate_track_filter"} {
		factory, ok := reg[name]
		require.True(t, ok, name)
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.ReturnCodes())
	}
}

func TestBuild(t *testing.T) {
	chain, err := Build(map[string]Settings{
		"duration_limit_filter":  {Enabled: true, Settings: map[string]any{"max_seconds": 600}},
		"duplicate_track_filter": {Enabled: true},
		"file_exists_filter":     {Enabled: false},
	})
	require.NoError(t, err)

	names := []string{}
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duplicate_track_filter", "duration_limit_filter"}, names)

	_, err = Build(map[string]Settings{"nope_filter": {Enabled: true}})
	assert.Error(t, err)

	_, err = Build(map[string]Settings{"duration_limit_filter": {Enabled: true, Settings: map[string]any{"min_seconds": -5}}})
	assert.Error(t, err)
}

func TestChain_Admit(t *testing.T) {
	chain, err := Build(map[string]Settings{
		"duration_limit_filter":  {Enabled: true, Settings: map[string]any{"min_seconds": 30}},
		"duplicate_track_filter": {Enabled: true},
	})
	require.NoError(t, err)

	mk := func(id, title, artist string, d time.Duration) *track.Track {
		tr := newTrack(t, id, title, artist)
		tr.SetDuration(d)
		return tr
	}
	tracks := []*track.Track{
		mk("1", "Yesterday", "The Beatles", 2*time.Minute),
		mk("2", "Yesterday - Remastered", "The Beatles", 2*time.Minute),
		mk("3", "Jingle", "Ad", 5*time.Second),
		mk("4", "Yesterday", "Boyz II Men", 3*time.Minute),
		mk("1", "Dup ID", "Other", 3*time.Minute),
	}

	admitted, report := chain.Admit(context.Background(), tracks, SourceCatalogFile)

	ids := []string{}
	for _, tr := range admitted {
		ids = append(ids, tr.ID())
	}
	assert.Equal(t, []string{"1", "4"}, ids)
	assert.Equal(t, 2, report.Admitted)
	assert.Equal(t, map[string]int{"duplicate_track": 2, "duration_limit_exceeded": 1}, report.Rejected)
}

func TestChain_Empty(t *testing.T) {
	tr := newTrack(t, "1", "Song", "Artist")
	assert.True(t, NewChain().Execute(context.Background(), tr, nil, SourceImport).Accepted)
}
