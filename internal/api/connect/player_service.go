package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/notification"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/domain/track"
)

var errStreamClosed = errors.New("stream closed")

// PlayerService implements playback control of the loaded playlist.
// Every method answers with the resulting player status.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{session: session}
}

func (s *PlayerService) respond(procedure string, err error) (*connect.Response[PlayerStatus], error) {
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(newPlayerStatus(s.session.PlayerStatus())), nil
}

// Status returns the player status.
func (s *PlayerService) Status(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceStatusProcedure, nil)
}

// Play starts the current track, or resumes it when paused.
func (s *PlayerService) Play(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServicePlayProcedure, s.session.Play())
}

// Pause pauses playback.
func (s *PlayerService) Pause(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServicePauseProcedure, s.session.Pause())
}

// Resume resumes paused playback.
func (s *PlayerService) Resume(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceResumeProcedure, s.session.Resume())
}

// Toggle pauses when playing and plays otherwise.
func (s *PlayerService) Toggle(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceToggleProcedure, s.session.TogglePlayPause())
}

// Stop stops playback.
func (s *PlayerService) Stop(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceStopProcedure, s.session.Stop())
}

// Next skips to the next track.
func (s *PlayerService) Next(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceNextProcedure, s.session.Next())
}

// Previous goes back one track.
func (s *PlayerService) Previous(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServicePreviousProcedure, s.session.Previous())
}

// PlayAt plays the track at the given index.
func (s *PlayerService) PlayAt(ctx context.Context, req *connect.Request[PlayAtRequest]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServicePlayAtProcedure, s.session.PlayAt(req.Msg.Index))
}

// SetVolume changes the volume and/or the mute state.
func (s *PlayerService) SetVolume(ctx context.Context, req *connect.Request[SetVolumeRequest]) (*connect.Response[PlayerStatus], error) {
	if v := req.Msg.Volume; v != nil {
		if err := s.session.SetVolume(*v); err != nil {
			return s.respond(PlayerServiceSetVolumeProcedure, err)
		}
	} else if step := req.Msg.Step; step != nil {
		if err := s.session.AdjustVolume(*step); err != nil {
			return s.respond(PlayerServiceSetVolumeProcedure, err)
		}
	}
	if m := req.Msg.Muted; m != nil {
		if err := s.session.SetMuted(*m); err != nil {
			return s.respond(PlayerServiceSetVolumeProcedure, err)
		}
	}
	return s.respond(PlayerServiceSetVolumeProcedure, nil)
}

// Shuffle shuffles the loaded playlist.
func (s *PlayerService) Shuffle(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceShuffleProcedure, s.session.Shuffle())
}

// Sort sorts the loaded playlist.
func (s *PlayerService) Sort(ctx context.Context, req *connect.Request[SortRequest]) (*connect.Response[PlayerStatus], error) {
	return s.respond(PlayerServiceSortProcedure, s.session.SortPlaylist(req.Msg.By))
}

// FindTracks searches the loaded playlist.
func (s *PlayerService) FindTracks(ctx context.Context, req *connect.Request[FindTracksRequest]) (*connect.Response[FindTracksResponse], error) {
	tracks, err := s.session.FindTracks(req.Msg.By, req.Msg.Query)
	if err != nil {
		return nil, toConnectError(PlayerServiceFindTracksProcedure, err)
	}
	resp := &FindTracksResponse{Tracks: make([]track.Record, 0, len(tracks))}
	for _, t := range tracks {
		resp.Tracks = append(resp.Tracks, t.Record())
	}
	return connect.NewResponse(resp), nil
}

// Watch streams player notifications until the client disconnects or the server stops.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[Notification],
) error {
	ws := &watchStream{stream: stream}
	id, err := s.session.Subscribe(ws)
	if err != nil {
		return toConnectError(PlayerServiceWatchProcedure, err)
	}
	zlog.Info().Msgf("watch started: %s (%s)", id, req.Peer().Addr)
	defer func() {
		s.session.Unsubscribe(id)
		ws.close()
		zlog.Info().Msgf("watch ended: %s", id)
	}()

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// watchStream serializes sends to a server stream and stops them once the handler returns.
type watchStream struct {
	mu     sync.Mutex
	closed bool
	stream *connect.ServerStream[notification.Notification]
}

func (w *watchStream) Send(n *notification.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errStreamClosed
	}
	return w.stream.Send(n)
}

func (w *watchStream) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}
