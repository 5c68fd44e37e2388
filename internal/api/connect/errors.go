package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/recommend"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/app/session/registry"
	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

var (
	invalidArgument = []error{
		mood.ErrUnknownEmotion,
		listener.ErrInvalidDisplayName,
		listener.ErrInvalidEmail,
		track.ErrInvalidTempo,
		track.ErrInvalidRating,
		track.ErrEmptyField,
		playlist.ErrIndexOutOfRange,
		playlist.ErrUnknownSortKey,
		session.ErrUnknownSearchField,
		recommend.ErrUnknownStrategy,
		recommend.ErrInvalidSettings,
		errInvalidDate,
	}
	notFound = []error{
		registry.ErrProfileNotFound,
		session.ErrNoMatches,
	}
	failedPrecondition = []error{
		playback.ErrNoPlaylist,
		playback.ErrEmptyPlaylist,
		playback.ErrNoTrack,
		playback.ErrNotPlaying,
		playback.ErrNotPaused,
		playback.ErrEndOfPlaylist,
		playback.ErrStartOfPlaylist,
	}
)

var errInvalidDate = errors.New("date must be YYYY-MM-DD")

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// toConnectError maps domain errors onto Connect status codes.
func toConnectError(procedure string, err error) error {
	if err == nil {
		return nil
	}
	var code connect.Code
	switch {
	case isAny(err, invalidArgument):
		code = connect.CodeInvalidArgument
	case isAny(err, notFound):
		code = connect.CodeNotFound
	case isAny(err, failedPrecondition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, session.ErrManagerClosed):
		code = connect.CodeUnavailable
	default:
		zlog.Error().Err(err).Msgf("%s failed", procedure)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	zlog.Debug().Msgf("%s: %s: %v", procedure, code, err)
	return connect.NewError(code, err)
}
