// Package connect provides the Connect RPC services of the moodbox server.
package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/domain/listener"
)

// recentMoodCount is the number of moods returned with the statistics.
const recentMoodCount = 5

// MoodService implements profile management, recommendation and mood statistics.
type MoodService struct {
	session *session.Manager
}

// NewMoodService creates a new MoodService.
func NewMoodService(session *session.Manager) *MoodService {
	return &MoodService{session: session}
}

func (in MoodRequest) input() session.MoodInput {
	return session.MoodInput{
		Emotion:            in.Emotion,
		Intensity:          in.Intensity,
		Secondary:          in.SecondaryEmotion,
		SecondaryIntensity: in.SecondaryIntensity,
		Description:        in.Description,
	}
}

// CreateProfile registers a new listener profile.
func (s *MoodService) CreateProfile(
	ctx context.Context,
	req *connect.Request[CreateProfileRequest],
) (*connect.Response[ProfileResponse], error) {
	p, err := s.session.CreateProfile(ctx, req.Msg.DisplayName, req.Msg.Email)
	if err != nil {
		return nil, toConnectError(MoodServiceCreateProfileProcedure, err)
	}
	return s.profileResponse(MoodServiceCreateProfileProcedure, p.ID)
}

// GetProfile returns a profile.
func (s *MoodService) GetProfile(
	ctx context.Context,
	req *connect.Request[GetProfileRequest],
) (*connect.Response[ProfileResponse], error) {
	return s.profileResponse(MoodServiceGetProfileProcedure, req.Msg.ProfileID)
}

// UpdatePreferences changes the display name, email, favorite genres or preferred tempo.
func (s *MoodService) UpdatePreferences(
	ctx context.Context,
	req *connect.Request[UpdatePreferencesRequest],
) (*connect.Response[ProfileResponse], error) {
	msg := req.Msg
	_, err := s.session.UpdatePreferences(ctx, msg.ProfileID, session.PreferencesUpdate{
		DisplayName:    msg.DisplayName,
		Email:          msg.Email,
		FavoriteGenres: msg.FavoriteGenres,
		PreferredTempo: msg.PreferredTempo,
	})
	if err != nil {
		return nil, toConnectError(MoodServiceUpdatePreferencesProcedure, err)
	}
	return s.profileResponse(MoodServiceUpdatePreferencesProcedure, msg.ProfileID)
}

func (s *MoodService) profileResponse(procedure, id string) (*connect.Response[ProfileResponse], error) {
	var out Profile
	err := s.session.ViewProfile(id, func(p *listener.Profile) {
		out = newProfile(p)
	})
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&ProfileResponse{Profile: out}), nil
}

// Recommend builds a playlist for the mood and loads it into the player.
func (s *MoodService) Recommend(
	ctx context.Context,
	req *connect.Request[RecommendRequest],
) (*connect.Response[RecommendResponse], error) {
	pl, err := s.session.Recommend(ctx, req.Msg.ProfileID, req.Msg.Mood.input(), req.Msg.Count)
	if err != nil {
		return nil, toConnectError(MoodServiceRecommendProcedure, err)
	}
	resp := &RecommendResponse{Playlist: pl.Snapshot(), Tags: []string{}}
	if pl.Mood != nil {
		resp.Tags = pl.Mood.MoodTags()
	}
	return connect.NewResponse(resp), nil
}

// RecordMood adds a mood to the history without recommending.
func (s *MoodService) RecordMood(
	ctx context.Context,
	req *connect.Request[RecordMoodRequest],
) (*connect.Response[RecordMoodResponse], error) {
	entry, err := s.session.RecordMood(ctx, req.Msg.ProfileID, req.Msg.Mood.input())
	if err != nil {
		return nil, toConnectError(MoodServiceRecordMoodProcedure, err)
	}
	return connect.NewResponse(&RecordMoodResponse{Entry: newHistoryEntry(entry)}), nil
}

// GetStatistics summarizes the mood history of a profile.
func (s *MoodService) GetStatistics(
	ctx context.Context,
	req *connect.Request[GetStatisticsRequest],
) (*connect.Response[GetStatisticsResponse], error) {
	var (
		st     listener.MoodStatistics
		recent []listener.HistoryEntry
	)
	err := s.session.ViewProfile(req.Msg.ProfileID, func(p *listener.Profile) {
		st = p.MoodStatistics()
		recent = p.RecentMoods(recentMoodCount)
	})
	if err != nil {
		return nil, toConnectError(MoodServiceGetStatisticsProcedure, err)
	}
	patterns, err := s.session.ListeningPatterns(req.Msg.ProfileID)
	if err != nil {
		return nil, toConnectError(MoodServiceGetStatisticsProcedure, err)
	}
	return connect.NewResponse(newStatistics(st, recent, patterns)), nil
}

// GetWeeklyReport returns the seven-day report ending on end_date.
func (s *MoodService) GetWeeklyReport(
	ctx context.Context,
	req *connect.Request[GetWeeklyReportRequest],
) (*connect.Response[GetWeeklyReportResponse], error) {
	end, err := parseDate(req.Msg.EndDate)
	if err != nil {
		return nil, toConnectError(MoodServiceGetWeeklyReportProcedure, err)
	}
	report, err := s.session.WeeklyReport(req.Msg.ProfileID, end)
	if err != nil {
		return nil, toConnectError(MoodServiceGetWeeklyReportProcedure, err)
	}
	return connect.NewResponse(&GetWeeklyReportResponse{
		Period: report.Period(),
		Report: report,
	}), nil
}

// GetDailySummary summarizes the moods recorded on one day.
func (s *MoodService) GetDailySummary(
	ctx context.Context,
	req *connect.Request[GetDailySummaryRequest],
) (*connect.Response[GetDailySummaryResponse], error) {
	day, err := parseDate(req.Msg.Date)
	if err != nil {
		return nil, toConnectError(MoodServiceGetDailySummaryProcedure, err)
	}
	summary, err := s.session.DailySummary(req.Msg.ProfileID, day)
	if err != nil {
		return nil, toConnectError(MoodServiceGetDailySummaryProcedure, err)
	}
	return connect.NewResponse(&GetDailySummaryResponse{Summary: summary}), nil
}

// GetHistory returns recorded moods, optionally narrowed to one emotion or one day.
func (s *MoodService) GetHistory(
	ctx context.Context,
	req *connect.Request[GetHistoryRequest],
) (*connect.Response[GetHistoryResponse], error) {
	day, err := parseDate(req.Msg.Date)
	if err != nil {
		return nil, toConnectError(MoodServiceGetHistoryProcedure, err)
	}
	entries, err := s.session.History(req.Msg.ProfileID, req.Msg.Emotion, day)
	if err != nil {
		return nil, toConnectError(MoodServiceGetHistoryProcedure, err)
	}
	return connect.NewResponse(&GetHistoryResponse{Entries: newHistoryEntries(entries)}), nil
}

// parseDate parses YYYY-MM-DD in local time. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Wrapf(errInvalidDate, "got %q", s)
	}
	return d, nil
}
