package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service names.
const (
	MoodServiceName   = "moodbox.v1.MoodService"
	PlayerServiceName = "moodbox.v1.PlayerService"
	AdminServiceName  = "moodbox.v1.AdminService"
)

// Fully-qualified procedure paths.
const (
	MoodServiceCreateProfileProcedure     = "/" + MoodServiceName + "/CreateProfile"
	MoodServiceGetProfileProcedure        = "/" + MoodServiceName + "/GetProfile"
	MoodServiceUpdatePreferencesProcedure = "/" + MoodServiceName + "/UpdatePreferences"
	MoodServiceRecommendProcedure         = "/" + MoodServiceName + "/Recommend"
	MoodServiceRecordMoodProcedure        = "/" + MoodServiceName + "/RecordMood"
	MoodServiceGetStatisticsProcedure     = "/" + MoodServiceName + "/GetStatistics"
	MoodServiceGetWeeklyReportProcedure   = "/" + MoodServiceName + "/GetWeeklyReport"
	MoodServiceGetDailySummaryProcedure   = "/" + MoodServiceName + "/GetDailySummary"
	MoodServiceGetHistoryProcedure        = "/" + MoodServiceName + "/GetHistory"

	PlayerServiceStatusProcedure     = "/" + PlayerServiceName + "/Status"
	PlayerServicePlayProcedure       = "/" + PlayerServiceName + "/Play"
	PlayerServicePauseProcedure      = "/" + PlayerServiceName + "/Pause"
	PlayerServiceResumeProcedure     = "/" + PlayerServiceName + "/Resume"
	PlayerServiceToggleProcedure     = "/" + PlayerServiceName + "/Toggle"
	PlayerServiceStopProcedure       = "/" + PlayerServiceName + "/Stop"
	PlayerServiceNextProcedure       = "/" + PlayerServiceName + "/Next"
	PlayerServicePreviousProcedure   = "/" + PlayerServiceName + "/Previous"
	PlayerServicePlayAtProcedure     = "/" + PlayerServiceName + "/PlayAt"
	PlayerServiceSetVolumeProcedure  = "/" + PlayerServiceName + "/SetVolume"
	PlayerServiceShuffleProcedure    = "/" + PlayerServiceName + "/Shuffle"
	PlayerServiceSortProcedure       = "/" + PlayerServiceName + "/Sort"
	PlayerServiceFindTracksProcedure = "/" + PlayerServiceName + "/FindTracks"
	PlayerServiceWatchProcedure      = "/" + PlayerServiceName + "/Watch"

	AdminServiceReloadCatalogProcedure  = "/" + AdminServiceName + "/ReloadCatalog"
	AdminServiceListStrategiesProcedure = "/" + AdminServiceName + "/ListStrategies"
	AdminServiceSetStrategyProcedure    = "/" + AdminServiceName + "/SetStrategy"
	AdminServiceListProfilesProcedure   = "/" + AdminServiceName + "/ListProfiles"
)

// NewMoodServiceHandler builds an HTTP handler for the mood service.
// It returns the path prefix to mount the handler on.
func NewMoodServiceHandler(svc *MoodService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(MoodServiceCreateProfileProcedure, connect.NewUnaryHandler(MoodServiceCreateProfileProcedure, svc.CreateProfile, opts...))
	mux.Handle(MoodServiceGetProfileProcedure, connect.NewUnaryHandler(MoodServiceGetProfileProcedure, svc.GetProfile, opts...))
	mux.Handle(MoodServiceUpdatePreferencesProcedure, connect.NewUnaryHandler(MoodServiceUpdatePreferencesProcedure, svc.UpdatePreferences, opts...))
	mux.Handle(MoodServiceRecommendProcedure, connect.NewUnaryHandler(MoodServiceRecommendProcedure, svc.Recommend, opts...))
	mux.Handle(MoodServiceRecordMoodProcedure, connect.NewUnaryHandler(MoodServiceRecordMoodProcedure, svc.RecordMood, opts...))
	mux.Handle(MoodServiceGetStatisticsProcedure, connect.NewUnaryHandler(MoodServiceGetStatisticsProcedure, svc.GetStatistics, opts...))
	mux.Handle(MoodServiceGetWeeklyReportProcedure, connect.NewUnaryHandler(MoodServiceGetWeeklyReportProcedure, svc.GetWeeklyReport, opts...))
	mux.Handle(MoodServiceGetDailySummaryProcedure, connect.NewUnaryHandler(MoodServiceGetDailySummaryProcedure, svc.GetDailySummary, opts...))
	mux.Handle(MoodServiceGetHistoryProcedure, connect.NewUnaryHandler(MoodServiceGetHistoryProcedure, svc.GetHistory, opts...))
	return "/" + MoodServiceName + "/", mux
}

// NewPlayerServiceHandler builds an HTTP handler for the player service.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(PlayerServiceStatusProcedure, connect.NewUnaryHandler(PlayerServiceStatusProcedure, svc.Status, opts...))
	mux.Handle(PlayerServicePlayProcedure, connect.NewUnaryHandler(PlayerServicePlayProcedure, svc.Play, opts...))
	mux.Handle(PlayerServicePauseProcedure, connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, opts...))
	mux.Handle(PlayerServiceResumeProcedure, connect.NewUnaryHandler(PlayerServiceResumeProcedure, svc.Resume, opts...))
	mux.Handle(PlayerServiceToggleProcedure, connect.NewUnaryHandler(PlayerServiceToggleProcedure, svc.Toggle, opts...))
	mux.Handle(PlayerServiceStopProcedure, connect.NewUnaryHandler(PlayerServiceStopProcedure, svc.Stop, opts...))
	mux.Handle(PlayerServiceNextProcedure, connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...))
	mux.Handle(PlayerServicePreviousProcedure, connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(PlayerServicePlayAtProcedure, connect.NewUnaryHandler(PlayerServicePlayAtProcedure, svc.PlayAt, opts...))
	mux.Handle(PlayerServiceSetVolumeProcedure, connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(PlayerServiceShuffleProcedure, connect.NewUnaryHandler(PlayerServiceShuffleProcedure, svc.Shuffle, opts...))
	mux.Handle(PlayerServiceSortProcedure, connect.NewUnaryHandler(PlayerServiceSortProcedure, svc.Sort, opts...))
	mux.Handle(PlayerServiceFindTracksProcedure, connect.NewUnaryHandler(PlayerServiceFindTracksProcedure, svc.FindTracks, opts...))
	mux.Handle(PlayerServiceWatchProcedure, connect.NewServerStreamHandler(PlayerServiceWatchProcedure, svc.Watch, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// NewAdminServiceHandler builds an HTTP handler for the admin service.
// Callers add NewAdminAuthInterceptor through opts.
func NewAdminServiceHandler(svc *AdminService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AdminServiceReloadCatalogProcedure, connect.NewUnaryHandler(AdminServiceReloadCatalogProcedure, svc.ReloadCatalog, opts...))
	mux.Handle(AdminServiceListStrategiesProcedure, connect.NewUnaryHandler(AdminServiceListStrategiesProcedure, svc.ListStrategies, opts...))
	mux.Handle(AdminServiceSetStrategyProcedure, connect.NewUnaryHandler(AdminServiceSetStrategyProcedure, svc.SetStrategy, opts...))
	mux.Handle(AdminServiceListProfilesProcedure, connect.NewUnaryHandler(AdminServiceListProfilesProcedure, svc.ListProfiles, opts...))
	return "/" + AdminServiceName + "/", mux
}
