// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/moodbox/internal/api/connect"
)

var (
	app    = kingpin.New("moodbox-admincli", "moodbox admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("MOODBOX_SERVER").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// reload command
	reloadCmd = app.Command("reload", "Reload the song catalog")

	// strategies command
	strategiesCmd = app.Command("strategies", "List recommendation strategies")

	// set-strategy command
	setStrategyCmd      = app.Command("set-strategy", "Switch the recommendation strategy")
	setStrategyName     = setStrategyCmd.Arg("name", "Strategy name").Required().String()
	setStrategySettings = setStrategyCmd.Flag("settings", "Strategy settings as JSON").String()

	// profiles command
	profilesCmd = app.Command("profiles", "List listener profiles").Alias("list")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewAdminServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.WithAdminToken(*token)),
	)

	ctx := context.Background()

	var err error
	switch command {
	case reloadCmd.FullCommand():
		err = reload(ctx, client)
	case strategiesCmd.FullCommand():
		err = listStrategies(ctx, client)
	case setStrategyCmd.FullCommand():
		err = setStrategy(ctx, client)
	case profilesCmd.FullCommand():
		err = listProfiles(ctx, client)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func reload(ctx context.Context, client *apiconnect.AdminServiceClient) error {
	resp, err := client.ReloadCatalog(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog reloaded: %d tracks admitted\n", resp.Admitted)
	codes := make([]string, 0, len(resp.Rejected))
	for code := range resp.Rejected {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("  rejected %-25s %d\n", code, resp.Rejected[code])
	}
	return nil
}

func listStrategies(ctx context.Context, client *apiconnect.AdminServiceClient) error {
	resp, err := client.ListStrategies(ctx)
	if err != nil {
		return err
	}
	printStrategies(resp.Strategies)
	return nil
}

func setStrategy(ctx context.Context, client *apiconnect.AdminServiceClient) error {
	req := &apiconnect.SetStrategyRequest{Name: *setStrategyName}
	if *setStrategySettings != "" {
		if err := json.Unmarshal([]byte(*setStrategySettings), &req.Settings); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}
	resp, err := client.SetStrategy(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Strategy switched to %s\n", *setStrategyName)
	printStrategies(resp.Strategies)
	return nil
}

func printStrategies(strategies []apiconnect.Strategy) {
	fmt.Printf("Strategies (%d):\n", len(strategies))
	for _, s := range strategies {
		marker := " "
		if s.Active {
			marker = "*"
		}
		fmt.Printf("%s %-15s %s\n", marker, s.Name, s.Description)
	}
}

func listProfiles(ctx context.Context, client *apiconnect.AdminServiceClient) error {
	resp, err := client.ListProfiles(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Profiles (%d):\n", len(resp.Profiles))
	for _, p := range resp.Profiles {
		fmt.Printf("  %s: %s (moods: %d, created: %s)\n",
			p.ProfileID, p.DisplayName, p.MoodCount, p.CreatedAt)
	}
	return nil
}
