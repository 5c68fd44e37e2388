package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// MoodServiceClient calls the mood service.
type MoodServiceClient struct {
	createProfile     *connect.Client[CreateProfileRequest, ProfileResponse]
	getProfile        *connect.Client[GetProfileRequest, ProfileResponse]
	updatePreferences *connect.Client[UpdatePreferencesRequest, ProfileResponse]
	recommend         *connect.Client[RecommendRequest, RecommendResponse]
	recordMood        *connect.Client[RecordMoodRequest, RecordMoodResponse]
	getStatistics     *connect.Client[GetStatisticsRequest, GetStatisticsResponse]
	getWeeklyReport   *connect.Client[GetWeeklyReportRequest, GetWeeklyReportResponse]
	getDailySummary   *connect.Client[GetDailySummaryRequest, GetDailySummaryResponse]
	getHistory        *connect.Client[GetHistoryRequest, GetHistoryResponse]
}

// NewMoodServiceClient creates a mood service client for the server at baseURL.
func NewMoodServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *MoodServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts...)
	return &MoodServiceClient{
		createProfile:     connect.NewClient[CreateProfileRequest, ProfileResponse](httpClient, baseURL+MoodServiceCreateProfileProcedure, opts...),
		getProfile:        connect.NewClient[GetProfileRequest, ProfileResponse](httpClient, baseURL+MoodServiceGetProfileProcedure, opts...),
		updatePreferences: connect.NewClient[UpdatePreferencesRequest, ProfileResponse](httpClient, baseURL+MoodServiceUpdatePreferencesProcedure, opts...),
		recommend:         connect.NewClient[RecommendRequest, RecommendResponse](httpClient, baseURL+MoodServiceRecommendProcedure, opts...),
		recordMood:        connect.NewClient[RecordMoodRequest, RecordMoodResponse](httpClient, baseURL+MoodServiceRecordMoodProcedure, opts...),
		getStatistics:     connect.NewClient[GetStatisticsRequest, GetStatisticsResponse](httpClient, baseURL+MoodServiceGetStatisticsProcedure, opts...),
		getWeeklyReport:   connect.NewClient[GetWeeklyReportRequest, GetWeeklyReportResponse](httpClient, baseURL+MoodServiceGetWeeklyReportProcedure, opts...),
		getDailySummary:   connect.NewClient[GetDailySummaryRequest, GetDailySummaryResponse](httpClient, baseURL+MoodServiceGetDailySummaryProcedure, opts...),
		getHistory:        connect.NewClient[GetHistoryRequest, GetHistoryResponse](httpClient, baseURL+MoodServiceGetHistoryProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *MoodServiceClient) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*ProfileResponse, error) {
	return call(ctx, c.createProfile, req)
}

func (c *MoodServiceClient) GetProfile(ctx context.Context, req *GetProfileRequest) (*ProfileResponse, error) {
	return call(ctx, c.getProfile, req)
}

func (c *MoodServiceClient) UpdatePreferences(ctx context.Context, req *UpdatePreferencesRequest) (*ProfileResponse, error) {
	return call(ctx, c.updatePreferences, req)
}

func (c *MoodServiceClient) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	return call(ctx, c.recommend, req)
}

func (c *MoodServiceClient) RecordMood(ctx context.Context, req *RecordMoodRequest) (*RecordMoodResponse, error) {
	return call(ctx, c.recordMood, req)
}

func (c *MoodServiceClient) GetStatistics(ctx context.Context, req *GetStatisticsRequest) (*GetStatisticsResponse, error) {
	return call(ctx, c.getStatistics, req)
}

func (c *MoodServiceClient) GetWeeklyReport(ctx context.Context, req *GetWeeklyReportRequest) (*GetWeeklyReportResponse, error) {
	return call(ctx, c.getWeeklyReport, req)
}

func (c *MoodServiceClient) GetDailySummary(ctx context.Context, req *GetDailySummaryRequest) (*GetDailySummaryResponse, error) {
	return call(ctx, c.getDailySummary, req)
}

func (c *MoodServiceClient) GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error) {
	return call(ctx, c.getHistory, req)
}

// PlayerServiceClient calls the player service.
type PlayerServiceClient struct {
	status     *connect.Client[Empty, PlayerStatus]
	play       *connect.Client[Empty, PlayerStatus]
	pause      *connect.Client[Empty, PlayerStatus]
	resume     *connect.Client[Empty, PlayerStatus]
	toggle     *connect.Client[Empty, PlayerStatus]
	stop       *connect.Client[Empty, PlayerStatus]
	next       *connect.Client[Empty, PlayerStatus]
	previous   *connect.Client[Empty, PlayerStatus]
	playAt     *connect.Client[PlayAtRequest, PlayerStatus]
	setVolume  *connect.Client[SetVolumeRequest, PlayerStatus]
	shuffle    *connect.Client[Empty, PlayerStatus]
	sort       *connect.Client[SortRequest, PlayerStatus]
	findTracks *connect.Client[FindTracksRequest, FindTracksResponse]
	watch      *connect.Client[Empty, Notification]
}

// NewPlayerServiceClient creates a player service client for the server at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts...)
	empty := func(procedure string) *connect.Client[Empty, PlayerStatus] {
		return connect.NewClient[Empty, PlayerStatus](httpClient, baseURL+procedure, opts...)
	}
	return &PlayerServiceClient{
		status:     empty(PlayerServiceStatusProcedure),
		play:       empty(PlayerServicePlayProcedure),
		pause:      empty(PlayerServicePauseProcedure),
		resume:     empty(PlayerServiceResumeProcedure),
		toggle:     empty(PlayerServiceToggleProcedure),
		stop:       empty(PlayerServiceStopProcedure),
		next:       empty(PlayerServiceNextProcedure),
		previous:   empty(PlayerServicePreviousProcedure),
		playAt:     connect.NewClient[PlayAtRequest, PlayerStatus](httpClient, baseURL+PlayerServicePlayAtProcedure, opts...),
		setVolume:  connect.NewClient[SetVolumeRequest, PlayerStatus](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		shuffle:    empty(PlayerServiceShuffleProcedure),
		sort:       connect.NewClient[SortRequest, PlayerStatus](httpClient, baseURL+PlayerServiceSortProcedure, opts...),
		findTracks: connect.NewClient[FindTracksRequest, FindTracksResponse](httpClient, baseURL+PlayerServiceFindTracksProcedure, opts...),
		watch:      connect.NewClient[Empty, Notification](httpClient, baseURL+PlayerServiceWatchProcedure, opts...),
	}
}

func (c *PlayerServiceClient) Status(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.status, &Empty{})
}

func (c *PlayerServiceClient) Play(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.play, &Empty{})
}

func (c *PlayerServiceClient) Pause(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.pause, &Empty{})
}

func (c *PlayerServiceClient) Resume(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.resume, &Empty{})
}

func (c *PlayerServiceClient) Toggle(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.toggle, &Empty{})
}

func (c *PlayerServiceClient) Stop(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.stop, &Empty{})
}

func (c *PlayerServiceClient) Next(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.next, &Empty{})
}

func (c *PlayerServiceClient) Previous(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.previous, &Empty{})
}

func (c *PlayerServiceClient) PlayAt(ctx context.Context, index int) (*PlayerStatus, error) {
	return call(ctx, c.playAt, &PlayAtRequest{Index: index})
}

func (c *PlayerServiceClient) SetVolume(ctx context.Context, req *SetVolumeRequest) (*PlayerStatus, error) {
	return call(ctx, c.setVolume, req)
}

func (c *PlayerServiceClient) Shuffle(ctx context.Context) (*PlayerStatus, error) {
	return call(ctx, c.shuffle, &Empty{})
}

func (c *PlayerServiceClient) Sort(ctx context.Context, by string) (*PlayerStatus, error) {
	return call(ctx, c.sort, &SortRequest{By: by})
}

func (c *PlayerServiceClient) FindTracks(ctx context.Context, req *FindTracksRequest) (*FindTracksResponse, error) {
	return call(ctx, c.findTracks, req)
}

// Watch opens the notification stream. The first message is the current state.
func (c *PlayerServiceClient) Watch(ctx context.Context) (*connect.ServerStreamForClient[Notification], error) {
	return c.watch.CallServerStream(ctx, connect.NewRequest(&Empty{}))
}

// AdminServiceClient calls the admin service. Pass WithAdminToken through
// connect.WithInterceptors to authenticate.
type AdminServiceClient struct {
	reloadCatalog  *connect.Client[Empty, ReloadCatalogResponse]
	listStrategies *connect.Client[Empty, ListStrategiesResponse]
	setStrategy    *connect.Client[SetStrategyRequest, ListStrategiesResponse]
	listProfiles   *connect.Client[Empty, ListProfilesResponse]
}

// NewAdminServiceClient creates an admin service client for the server at baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts...)
	return &AdminServiceClient{
		reloadCatalog:  connect.NewClient[Empty, ReloadCatalogResponse](httpClient, baseURL+AdminServiceReloadCatalogProcedure, opts...),
		listStrategies: connect.NewClient[Empty, ListStrategiesResponse](httpClient, baseURL+AdminServiceListStrategiesProcedure, opts...),
		setStrategy:    connect.NewClient[SetStrategyRequest, ListStrategiesResponse](httpClient, baseURL+AdminServiceSetStrategyProcedure, opts...),
		listProfiles:   connect.NewClient[Empty, ListProfilesResponse](httpClient, baseURL+AdminServiceListProfilesProcedure, opts...),
	}
}

func (c *AdminServiceClient) ReloadCatalog(ctx context.Context) (*ReloadCatalogResponse, error) {
	return call(ctx, c.reloadCatalog, &Empty{})
}

func (c *AdminServiceClient) ListStrategies(ctx context.Context) (*ListStrategiesResponse, error) {
	return call(ctx, c.listStrategies, &Empty{})
}

func (c *AdminServiceClient) SetStrategy(ctx context.Context, req *SetStrategyRequest) (*ListStrategiesResponse, error) {
	return call(ctx, c.setStrategy, req)
}

func (c *AdminServiceClient) ListProfiles(ctx context.Context) (*ListProfilesResponse, error) {
	return call(ctx, c.listProfiles, &Empty{})
}
