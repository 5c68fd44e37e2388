// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/moodbox/internal/api/connect"
	"github.com/osa030/moodbox/internal/app/filter"
	"github.com/osa030/moodbox/internal/app/importer"
	"github.com/osa030/moodbox/internal/app/recommend"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/app/stats"
	"github.com/osa030/moodbox/internal/infra/catalogfile"
	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/lastfm"
	"github.com/osa030/moodbox/internal/infra/logger"
	"github.com/osa030/moodbox/internal/infra/spotify"
	"github.com/osa030/moodbox/internal/infra/sqlite"
)

var (
	app        = kingpin.New("moodbox-server", "moodbox mood-based music server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")

	// list-strategies command
	listStrategiesCmd = app.Command("list-strategies", "List recommendation strategies and exit")

	// import command
	importCmd = app.Command("import", "Import a Spotify playlist into the catalog")
	importURL = importCmd.Arg("playlist-url", "Spotify playlist URL or ID").Required().String()
	importDry = importCmd.Flag("dry-run", "Show what would be imported without saving").Bool()

	// export-history command
	exportCmd     = app.Command("export-history", "Export a profile's mood history as CSV")
	exportProfile = exportCmd.Arg("profile-id", "Profile ID (UUID)").Required().String()
	exportOut     = exportCmd.Flag("out", "Output file (default: stdout)").Short('o').String()
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listStrategiesCmd.FullCommand():
		printStrategies()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}
	if *verbose {
		logCfg.Level = "debug"
	}
	if *logfile != "" {
		logCfg.Output = *logfile
	}
	closer, err := logger.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	zlog.Info().Msgf("Config loaded from %s", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case importCmd.FullCommand():
		err = runImport(ctx, cfg, *importURL, *importDry)
	case exportCmd.FullCommand():
		err = runExport(ctx, cfg, *exportProfile, *exportOut)
	default:
		err = run(ctx, cfg)
	}
	if err != nil {
		zlog.Error().Msgf("%s: %v", command, err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(ctx context.Context, cfg *config.Config) error {
	store, err := sqlite.Open(cfg.Store.DSN)
	if err != nil {
		return errors.Wrap(err, "failed to open profile store")
	}
	defer store.Close()

	sessionMgr, err := session.NewManager(cfg, store, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}
	defer sessionMgr.Close()

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewMoodServiceHandler(apiconnect.NewMoodService(sessionMgr)))
	mux.Handle(apiconnect.NewPlayerServiceHandler(apiconnect.NewPlayerService(sessionMgr)))
	mux.Handle(apiconnect.NewAdminServiceHandler(
		apiconnect.NewAdminService(sessionMgr),
		connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg.Admin.Token)),
	))

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Close session manager first so in-flight player calls fail fast
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	if err := sessionMgr.SaveCatalog(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to save play counts: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// runImport fetches a playlist, tags its tracks and merges them into the catalog file.
func runImport(ctx context.Context, cfg *config.Config, playlistURL string, dryRun bool) error {
	if !cfg.HasSpotify() {
		return errors.New("spotify credentials are not configured")
	}
	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Spotify client")
	}

	var tags importer.TagSource
	if cfg.LastFM.APIKey != "" {
		lastfmClient, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey})
		if err != nil {
			return errors.Wrap(err, "failed to create Last.fm client")
		}
		tags = lastfmClient
	} else {
		zlog.Warn().Msg("Last.fm API key not configured, imported tracks get no mood tags")
	}

	imported, err := importer.New(spotifyClient, tags, cfg.LastFM.MaxTags).Import(ctx, playlistURL)
	if err != nil {
		return err
	}

	existing, err := catalogfile.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		zlog.Info().Msgf("Catalog %s does not exist yet, creating it", cfg.Catalog.Path)
	}

	chain, err := filter.Build(session.FilterSettings(cfg))
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}
	merged, report := importer.Merge(ctx, chain, existing, imported)
	fmt.Printf("Imported %d of %d tracks", report.Admitted, len(imported))
	if len(report.Rejected) > 0 {
		fmt.Printf(" (rejected: %v)", report.Rejected)
	}
	fmt.Println()

	if dryRun {
		for _, t := range merged[len(existing):] {
			fmt.Printf("  %s [%s, %s] %s\n", t, t.Tempo(), t.FormattedDuration(), strings.Join(t.MoodTags(), ", "))
		}
		return nil
	}
	return catalogfile.Save(ctx, cfg.Catalog.Path, merged)
}

// runExport writes the mood history of a stored profile as CSV.
func runExport(ctx context.Context, cfg *config.Config, profileID, outPath string) error {
	store, err := sqlite.Open(cfg.Store.DSN)
	if err != nil {
		return errors.Wrap(err, "failed to open profile store")
	}
	defer store.Close()

	p, err := store.LoadProfile(ctx, profileID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := stats.ExportCSV(w, p.History()); err != nil {
		return err
	}
	zlog.Info().Msgf("Exported %d mood records of %s", len(p.History()), p.DisplayName)
	return nil
}

// printFilters prints available filters.
func printFilters() {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", name, f.Description(), codes)
	}
}

// printStrategies prints the recommendation strategies.
func printStrategies() {
	fmt.Println("Available Strategies:")
	catalog := recommend.NewCatalog(nil)
	for _, name := range recommend.Names() {
		r, err := recommend.New(name, catalog, nil)
		if err != nil {
			continue
		}
		fmt.Printf("  %-15s - %s\n", name, r.Description())
	}
}
