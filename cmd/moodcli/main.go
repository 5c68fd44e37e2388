// Package main provides the listener CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/moodbox/internal/api/connect"
)

var (
	app    = kingpin.New("moodbox", "moodbox listener client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("MOODBOX_SERVER").String()

	// profile commands
	createCmd   = app.Command("create-profile", "Create a listener profile")
	createName  = createCmd.Arg("name", "Display name").Required().String()
	createEmail = createCmd.Arg("email", "Email address (optional)").String()

	profileCmd = app.Command("profile", "Show a profile")
	profileID  = profileCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()

	prefsCmd    = app.Command("prefs", "Update profile preferences")
	prefsID     = prefsCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	prefsName   = prefsCmd.Flag("name", "New display name").String()
	prefsEmail  = prefsCmd.Flag("email", "New email address").String()
	prefsGenres = prefsCmd.Flag("genre", "Favorite genre (repeatable, replaces the current list)").Strings()
	prefsTempo  = prefsCmd.Flag("tempo", "Preferred tempo").Enum("slow", "medium", "fast")

	// mood commands
	recommendCmd       = app.Command("recommend", "Get a playlist for a mood")
	recommendEmotion   = recommendCmd.Arg("emotion", "Emotion (happy, sad, calm, ...)").Required().String()
	recommendProfile   = recommendCmd.Flag("profile", "Profile ID (omit to listen as a guest)").Short('p').String()
	recommendIntensity = recommendCmd.Flag("intensity", "Intensity 1-10").Short('i').Default("5").Int()
	recommendSecondary = recommendCmd.Flag("blend", "Secondary emotion").String()
	recommendSecInt    = recommendCmd.Flag("blend-intensity", "Secondary intensity 1-10").Default("5").Int()
	recommendDesc      = recommendCmd.Flag("note", "Free-form description").String()
	recommendCount     = recommendCmd.Flag("count", "Number of tracks").Short('n').Int()

	recordCmd       = app.Command("record", "Record a mood without a playlist")
	recordProfile   = recordCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	recordEmotion   = recordCmd.Arg("emotion", "Emotion").Required().String()
	recordIntensity = recordCmd.Flag("intensity", "Intensity 1-10").Short('i').Default("5").Int()
	recordDesc      = recordCmd.Flag("note", "Free-form description").String()

	statsCmd     = app.Command("stats", "Show mood statistics")
	statsProfile = statsCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()

	weeklyCmd     = app.Command("weekly", "Show the weekly mood report")
	weeklyProfile = weeklyCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	weeklyEnd     = weeklyCmd.Flag("end", "Last day of the week (YYYY-MM-DD, default today)").String()

	dailyCmd     = app.Command("daily", "Show the mood summary for one day")
	dailyProfile = dailyCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	dailyDate    = dailyCmd.Flag("date", "Day (YYYY-MM-DD, default today)").String()

	historyCmd     = app.Command("history", "List recorded moods")
	historyProfile = historyCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	historyEmotion = historyCmd.Flag("emotion", "Only this emotion").String()
	historyDate    = historyCmd.Flag("date", "Only this day (YYYY-MM-DD)").String()

	// player commands
	playerCmd   = app.Command("player", "Control playback")
	statusCmd   = playerCmd.Command("status", "Show player status").Default()
	playCmd     = playerCmd.Command("play", "Start or resume playback")
	pauseCmd    = playerCmd.Command("pause", "Pause playback")
	resumeCmd   = playerCmd.Command("resume", "Resume playback")
	stopCmd     = playerCmd.Command("stop", "Stop playback")
	nextCmd     = playerCmd.Command("next", "Skip to the next track")
	prevCmd     = playerCmd.Command("prev", "Go back one track").Alias("previous")
	playAtCmd   = playerCmd.Command("play-at", "Play the track at a position")
	playAtIndex = playAtCmd.Arg("index", "Track position (1-based)").Required().Int()
	volumeCmd   = playerCmd.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume 0-100").Required().Int()
	upCmd       = playerCmd.Command("up", "Turn the volume up")
	upStep      = upCmd.Arg("step", "Step 1-100 (default 10)").Int()
	downCmd     = playerCmd.Command("down", "Turn the volume down")
	downStep    = downCmd.Arg("step", "Step 1-100 (default 10)").Int()
	muteCmd     = playerCmd.Command("mute", "Mute")
	unmuteCmd   = playerCmd.Command("unmute", "Unmute")
	toggleCmd   = playerCmd.Command("toggle", "Toggle between play and pause")
	shuffleCmd  = playerCmd.Command("shuffle", "Shuffle the playlist")
	sortCmd     = playerCmd.Command("sort", "Sort the playlist")
	sortKey     = sortCmd.Arg("by", "Sort key").Required().Enum("title", "artist", "rating", "duration")
	findCmd     = playerCmd.Command("find", "Search the loaded playlist")
	findBy      = findCmd.Arg("by", "Search field").Required().Enum("title", "artist", "mood")
	findQuery   = findCmd.Arg("query", "Search text").Required().String()
	watchCmd    = playerCmd.Command("watch", "Stream player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	moodClient := apiconnect.NewMoodServiceClient(http.DefaultClient, *server)
	playerClient := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server)

	ctx := context.Background()

	var err error
	switch command {
	case createCmd.FullCommand():
		err = createProfile(ctx, moodClient)
	case profileCmd.FullCommand():
		err = showProfile(ctx, moodClient)
	case prefsCmd.FullCommand():
		err = updatePreferences(ctx, moodClient)
	case recommendCmd.FullCommand():
		err = recommendPlaylist(ctx, moodClient)
	case recordCmd.FullCommand():
		err = recordMood(ctx, moodClient)
	case statsCmd.FullCommand():
		err = showStatistics(ctx, moodClient)
	case weeklyCmd.FullCommand():
		err = showWeeklyReport(ctx, moodClient)
	case dailyCmd.FullCommand():
		err = showDailySummary(ctx, moodClient)
	case historyCmd.FullCommand():
		err = showHistory(ctx, moodClient)
	case findCmd.FullCommand():
		err = findTracks(ctx, playerClient)
	case watchCmd.FullCommand():
		err = watch(ctx, playerClient)
	default:
		err = controlPlayer(ctx, playerClient, command)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func createProfile(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.CreateProfile(ctx, &apiconnect.CreateProfileRequest{
		DisplayName: *createName,
		Email:       *createEmail,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! Your profile ID: %s\n", resp.Profile.DisplayName, resp.Profile.ProfileID)
	return nil
}

func showProfile(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.GetProfile(ctx, &apiconnect.GetProfileRequest{ProfileID: *profileID})
	if err != nil {
		return err
	}
	printProfile(resp.Profile)
	return nil
}

func updatePreferences(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	req := &apiconnect.UpdatePreferencesRequest{ProfileID: *prefsID}
	if *prefsName != "" {
		req.DisplayName = prefsName
	}
	if *prefsEmail != "" {
		req.Email = prefsEmail
	}
	if len(*prefsGenres) > 0 {
		req.FavoriteGenres = *prefsGenres
	}
	if *prefsTempo != "" {
		req.PreferredTempo = prefsTempo
	}
	resp, err := client.UpdatePreferences(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println("Preferences updated")
	printProfile(resp.Profile)
	return nil
}

func printProfile(p apiconnect.Profile) {
	fmt.Printf("\n%s (%s)\n", p.DisplayName, p.ProfileID)
	if p.Email != "" {
		fmt.Printf("  Email: %s\n", p.Email)
	}
	fmt.Printf("  Member since: %s\n", p.CreatedAt)
	fmt.Printf("  Favorite genres: %s\n", strings.Join(p.FavoriteGenres, ", "))
	fmt.Printf("  Preferred tempo: %s\n", p.PreferredTempo)
	fmt.Printf("  Moods recorded: %d\n", p.MoodCount)
	if len(p.RecentPlays) > 0 {
		fmt.Printf("  Recently played: %s\n", strings.Join(p.RecentPlays, ", "))
	}
	fmt.Println()
}

func recommendPlaylist(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.Recommend(ctx, &apiconnect.RecommendRequest{
		ProfileID: *recommendProfile,
		Mood: apiconnect.MoodRequest{
			Emotion:            *recommendEmotion,
			Intensity:          *recommendIntensity,
			SecondaryEmotion:   *recommendSecondary,
			SecondaryIntensity: *recommendSecInt,
			Description:        *recommendDesc,
		},
		Count: *recommendCount,
	})
	if err != nil {
		return err
	}

	pl := resp.Playlist
	fmt.Printf("\n=== %s ===\n", pl.Name)
	fmt.Printf("%d tracks, %s, average rating %.1f\n", pl.SongCount, pl.TotalDurationFormatted, pl.AverageRating)
	fmt.Printf("Genres: %s\n", strings.Join(pl.Genres, ", "))
	fmt.Printf("Matched tags: %s\n\n", strings.Join(resp.Tags, ", "))
	for i, s := range pl.Songs {
		fmt.Printf("%2d. %s - %s [%s, %s]\n", i+1, s.Title, s.Artist, s.Genre, s.Tempo)
	}
	fmt.Println()
	return nil
}

func recordMood(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.RecordMood(ctx, &apiconnect.RecordMoodRequest{
		ProfileID: *recordProfile,
		Mood: apiconnect.MoodRequest{
			Emotion:     *recordEmotion,
			Intensity:   *recordIntensity,
			Description: *recordDesc,
		},
	})
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s (%d/10) in the %s\n", resp.Entry.Emotion, resp.Entry.Intensity, resp.Entry.TimeOfDay)
	return nil
}

func showStatistics(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	st, err := client.GetStatistics(ctx, &apiconnect.GetStatisticsRequest{ProfileID: *statsProfile})
	if err != nil {
		return err
	}
	if st.TotalRecords == 0 {
		fmt.Println("No moods recorded yet")
		return nil
	}

	fmt.Println("\n=== MOOD STATISTICS ===")
	fmt.Printf("Total records: %d\n", st.TotalRecords)
	fmt.Printf("Most common: %s (%d times)\n", st.MostCommonMood, st.MostCommonCount)
	fmt.Printf("Average intensity: %.1f\n", st.AverageIntensity)
	fmt.Printf("Favorite time: %s\n", st.FavoriteTime)
	for _, tod := range []string{"morning", "afternoon", "evening", "night"} {
		fmt.Printf("  %-10s %d\n", tod, st.ListeningPatterns[tod])
	}

	emotions := make([]string, 0, len(st.Distribution))
	for e := range st.Distribution {
		emotions = append(emotions, e)
	}
	sort.Slice(emotions, func(i, j int) bool {
		if st.Distribution[emotions[i]] != st.Distribution[emotions[j]] {
			return st.Distribution[emotions[i]] > st.Distribution[emotions[j]]
		}
		return emotions[i] < emotions[j]
	})
	fmt.Println("\nDistribution:")
	for _, e := range emotions {
		fmt.Printf("  %-12s %s %d\n", e, strings.Repeat("#", st.Distribution[e]), st.Distribution[e])
	}

	fmt.Println("\nRecent moods:")
	for _, e := range st.RecentMoods {
		fmt.Printf("  %s  %-10s %2d/10  %s\n", e.Timestamp, e.Emotion, e.Intensity, e.TimeOfDay)
	}
	fmt.Println()
	return nil
}

func showWeeklyReport(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.GetWeeklyReport(ctx, &apiconnect.GetWeeklyReportRequest{
		ProfileID: *weeklyProfile,
		EndDate:   *weeklyEnd,
	})
	if err != nil {
		return err
	}

	r := resp.Report
	fmt.Printf("\n=== WEEKLY REPORT: %s ===\n", resp.Period)
	fmt.Printf("Total records: %d\n", r.TotalRecords)
	if r.MostCommonOverall != "" {
		fmt.Printf("Most common overall: %s\n", r.MostCommonOverall)
	}
	fmt.Println()
	for _, d := range r.Days {
		mostCommon := "-"
		if d.MostCommon != "" {
			mostCommon = string(d.MostCommon)
		}
		fmt.Printf("  %s  %2d  %s\n", d.Date, d.Count, mostCommon)
	}
	fmt.Println()
	return nil
}

func showDailySummary(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.GetDailySummary(ctx, &apiconnect.GetDailySummaryRequest{
		ProfileID: *dailyProfile,
		Date:      *dailyDate,
	})
	if err != nil {
		return err
	}

	d := resp.Summary
	fmt.Printf("\n=== %s ===\n", d.Date)
	if d.TotalRecords == 0 {
		fmt.Println("No moods recorded")
		return nil
	}
	fmt.Printf("Total records: %d\n", d.TotalRecords)
	fmt.Printf("Most common: %s\n", d.MostCommon)
	fmt.Printf("Average intensity: %.1f\n", d.AverageIntensity)
	lines := make([]string, 0, len(d.Emotions))
	for e, n := range d.Emotions {
		lines = append(lines, fmt.Sprintf("  %-12s %d", e, n))
	}
	sort.Strings(lines)
	fmt.Println(strings.Join(lines, "\n"))
	fmt.Println()
	return nil
}

func showHistory(ctx context.Context, client *apiconnect.MoodServiceClient) error {
	resp, err := client.GetHistory(ctx, &apiconnect.GetHistoryRequest{
		ProfileID: *historyProfile,
		Emotion:   *historyEmotion,
		Date:      *historyDate,
	})
	if err != nil {
		return err
	}
	if len(resp.Entries) == 0 {
		fmt.Println("No matching moods")
		return nil
	}
	for _, e := range resp.Entries {
		fmt.Printf("  %s  %-10s %2d/10  %s\n", e.Timestamp, e.Emotion, e.Intensity, e.TimeOfDay)
	}
	return nil
}

func findTracks(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	resp, err := client.FindTracks(ctx, &apiconnect.FindTracksRequest{By: *findBy, Query: *findQuery})
	if err != nil {
		return err
	}
	if len(resp.Tracks) == 0 {
		fmt.Println("No matching tracks")
		return nil
	}
	for _, t := range resp.Tracks {
		fmt.Printf("  %s - %s [%s]\n", t.Title, t.Artist, strings.Join(t.MoodTags, ", "))
	}
	return nil
}

func volumeStep(step int, sign float64) *float64 {
	if step <= 0 {
		step = 10
	}
	v := sign * float64(step) / 100
	return &v
}

func controlPlayer(ctx context.Context, client *apiconnect.PlayerServiceClient, command string) error {
	var (
		status *apiconnect.PlayerStatus
		err    error
	)
	switch command {
	case playCmd.FullCommand():
		status, err = client.Play(ctx)
	case pauseCmd.FullCommand():
		status, err = client.Pause(ctx)
	case resumeCmd.FullCommand():
		status, err = client.Resume(ctx)
	case toggleCmd.FullCommand():
		status, err = client.Toggle(ctx)
	case stopCmd.FullCommand():
		status, err = client.Stop(ctx)
	case nextCmd.FullCommand():
		status, err = client.Next(ctx)
	case prevCmd.FullCommand():
		status, err = client.Previous(ctx)
	case playAtCmd.FullCommand():
		status, err = client.PlayAt(ctx, *playAtIndex-1)
	case volumeCmd.FullCommand():
		v := float64(*volumeLevel) / 100
		status, err = client.SetVolume(ctx, &apiconnect.SetVolumeRequest{Volume: &v})
	case upCmd.FullCommand():
		status, err = client.SetVolume(ctx, &apiconnect.SetVolumeRequest{Step: volumeStep(*upStep, 1)})
	case downCmd.FullCommand():
		status, err = client.SetVolume(ctx, &apiconnect.SetVolumeRequest{Step: volumeStep(*downStep, -1)})
	case shuffleCmd.FullCommand():
		status, err = client.Shuffle(ctx)
	case sortCmd.FullCommand():
		status, err = client.Sort(ctx, *sortKey)
	case muteCmd.FullCommand(), unmuteCmd.FullCommand():
		muted := command == muteCmd.FullCommand()
		status, err = client.SetVolume(ctx, &apiconnect.SetVolumeRequest{Muted: &muted})
	default:
		status, err = client.Status(ctx)
	}
	if err != nil {
		return err
	}
	printStatus(status)
	return nil
}

func printStatus(s *apiconnect.PlayerStatus) {
	fmt.Printf("\nState: %s\n", formatState(s.State))
	if s.PlaylistName != "" {
		fmt.Printf("Playlist: %s (%d tracks)\n", s.PlaylistName, s.TrackCount)
	}
	if s.Track != nil {
		fmt.Printf("Track %d/%d: %s - %s\n", s.Index+1, s.TrackCount, s.Track.Title, s.Track.Artist)
		fmt.Printf("Position: %d:%02d\n", s.PositionSec/60, s.PositionSec%60)
	}
	if s.Muted {
		fmt.Println("Volume: muted")
	} else {
		fmt.Printf("Volume: %d%%\n", int(s.Volume*100+0.5))
	}
	fmt.Println()
}

func formatState(state string) string {
	switch state {
	case "playing":
		return "▶️  Playing"
	case "paused":
		return "⏸  Paused"
	case "idle":
		return "⏹  Idle"
	default:
		return "❓ Unknown"
	}
}

func watch(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Watch(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Watching the player. Press Ctrl+C to exit.")
	for stream.Receive() {
		printNotification(stream.Msg())
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	fmt.Println("\nStopped watching")
	return nil
}

func printNotification(n *apiconnect.Notification) {
	fmt.Printf("\n[Sequence: %d] ", n.SequenceNo)
	switch n.Type {
	case "initial_state":
		fmt.Println("=== INITIAL STATE ===")
	case "state_changed":
		fmt.Println("=== STATE CHANGED ===")
	case "track_changed":
		fmt.Println("=== TRACK CHANGED ===")
	case "playlist_changed":
		fmt.Println("=== PLAYLIST CHANGED ===")
	default:
		fmt.Printf("=== UNKNOWN EVENT (%s) ===\n", n.Type)
	}

	if n.Event != "" {
		fmt.Printf("  Event: %s\n", n.Event)
	}
	fmt.Printf("  State: %s\n", formatState(n.State))
	if n.PlaylistName != "" {
		fmt.Printf("  Playlist: %s\n", n.PlaylistName)
	}
	if n.Track != nil {
		fmt.Printf("  Track: %s - %s (%s)\n", n.Track.Title, n.Track.Artist, n.Track.Genre)
	}
	fmt.Printf("  At: %s\n", n.Timestamp)
}
