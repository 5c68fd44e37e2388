package filter

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
)

// FileExistsConfig represents the configuration for FileExistsFilter.
type FileExistsConfig struct {
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}

// FileExistsFilter rejects catalog tracks whose audio file is missing.
// URL references (http, https, spotify) are always accepted.
type FileExistsFilter struct {
	config FileExistsConfig
	stat   func(string) (os.FileInfo, error)
}

// NewFileExistsFilter creates a new file exists filter.
func NewFileExistsFilter() *FileExistsFilter {
	return &FileExistsFilter{stat: os.Stat}
}

func (f *FileExistsFilter) Name() string {
	return "file_exists_filter"
}

func (f *FileExistsFilter) Description() string {
	return "Rejects catalog tracks whose file reference does not exist (relative paths resolve against base_dir)"
}

func (f *FileExistsFilter) ReturnCodes() []string {
	return []string{"file_not_found", "missing_file_reference"}
}

func (f *FileExistsFilter) ValidateConfig(settings map[string]any) error {
	var config FileExistsConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if config.BaseDir != "" {
		info, err := f.stat(config.BaseDir)
		if err != nil {
			return errors.Wrapf(err, "base_dir %q", config.BaseDir)
		}
		if !info.IsDir() {
			return errors.Newf("base_dir %q is not a directory", config.BaseDir)
		}
	}
	f.config = config
	zlog.Info().Msgf("file exists filter config: %+v", config)
	return nil
}

// AppliesTo limits the filter to local catalog files; imported tracks reference URLs.
func (f *FileExistsFilter) AppliesTo(source Source) bool {
	return source == SourceCatalogFile
}

func (f *FileExistsFilter) Check(ctx context.Context, t *track.Track, admitted []*track.Track) Result {
	ref := t.FilePath()
	if ref == "" {
		return Reject("missing_file_reference")
	}
	if isURL(ref) {
		return Accept()
	}
	path := ref
	if !filepath.IsAbs(path) && f.config.BaseDir != "" {
		path = filepath.Join(f.config.BaseDir, path)
	}
	if _, err := f.stat(path); err != nil {
		return Reject("file_not_found")
	}
	return Accept()
}

func isURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "spotify":
		return true
	default:
		return false
	}
}

func init() {
	Register("file_exists_filter", func() Filter {
		return NewFileExistsFilter()
	})
}
