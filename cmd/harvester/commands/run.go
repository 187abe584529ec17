package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"orderharvest-backend/internal/harvest"
	"orderharvest-backend/internal/orderstore"
	"orderharvest-backend/internal/orderstore/db"
	"orderharvest-backend/internal/scrapers/deliveroo"
	"orderharvest-backend/internal/scrapers/panda"
	"orderharvest-backend/internal/storecfg"
	"orderharvest-backend/lib/configutil"
	"orderharvest-backend/lib/restyutil"
	"orderharvest-backend/lib/serviceutil"
	"orderharvest-backend/lib/sqliteutil"
	"orderharvest-backend/lib/timezone"
)

type Config struct {
	Deliveroo deliveroo.Credentials `json:"deliveroo"`
	Panda     panda.Credentials     `json:"panda"`
}

var (
	runPlatform  *string
	runStores    *string
	runStart     *string
	runEnd       *string
	runDb        *string
	runConfig    *string
	runRoster    *string
	runPageSize  *int
	runHeadful   *bool
	runDebugHTTP *bool
)

func init() {
	runPlatform = runCmd.Flags().String("platform", "", "Platform to harvest: deliveroo or panda.")
	runStores = runCmd.Flags().String("stores", "all", "Store selector: 'all', a code, or a comma-separated list of codes/names.")
	runStart = runCmd.Flags().String("start", "", "Window start date (YYYY-MM-DD). Defaults to yesterday.")
	runEnd = runCmd.Flags().String("end", "", "Window end date (YYYY-MM-DD). Defaults to the start date.")
	runDb = runCmd.Flags().String("db", "harvest.db", "The database to write harvested orders to.")
	runConfig = runCmd.Flags().String("config", "config.json5", "Credentials config file.")
	runRoster = runCmd.Flags().String("roster", "stores.json5", "Store roster config file.")
	runPageSize = runCmd.Flags().Int("page-size", 20, "List endpoint page size.")
	runHeadful = runCmd.Flags().Bool("headful", false, "Run the browser with a visible window.")
	runDebugHTTP = runCmd.Flags().Bool("debug-http", false, "Dump raw request/response pairs to .dev/resty/harvester.")
	runCmd.MarkFlagRequired("platform")
	rootCmd.AddCommand(runCmd)
}

func resolveWindow() (harvest.Window, error) {
	if *runStart == "" && *runEnd == "" {
		return harvest.DefaultWindow(timezone.Now()), nil
	}
	start := *runStart
	end := *runEnd
	if end == "" {
		end = start
	}
	if start == "" {
		start = end
	}
	return harvest.ParseWindow(start, end)
}

func buildPlatform(cfg Config, window harvest.Window) (harvest.Platform, error) {
	if *runDebugHTTP {
		out := restyutil.NewFilesystemOutput(".dev/resty/harvester")
		deliveroo.SetRestyInstrumentOutput(out)
		panda.SetRestyInstrumentOutput(out)
	}
	switch *runPlatform {
	case "deliveroo":
		return deliveroo.New(cfg.Deliveroo, window, deliveroo.Options{Headful: *runHeadful}), nil
	case "panda":
		return panda.New(cfg.Panda, panda.Options{Headful: *runHeadful}), nil
	default:
		return nil, fmt.Errorf("unknown platform %q, expected deliveroo or panda", *runPlatform)
	}
}

var runCmd = &cobra.Command{
	Use:   "run --platform <deliveroo|panda> [--stores all] [--start YYYY-MM-DD] [--end YYYY-MM-DD]",
	Short: "Runs one harvesting batch and writes the orders to a database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*runConfig)
		if err != nil {
			serviceutil.Fatal("failed to read credentials config", err)
		}
		roster, err := storecfg.Load(*runRoster)
		if err != nil {
			serviceutil.Fatal("failed to read store roster", err)
		}
		stores, unknown := roster.Resolve(*runStores)

		window, err := resolveWindow()
		if err != nil {
			serviceutil.Fatal("failed to parse date window", err)
		}

		database, err := sqliteutil.OpenDB(db.Schema, *runDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}

		platform, err := buildPlatform(cfg, window)
		if err != nil {
			database.Close()
			serviceutil.Fatal("failed to build platform", err)
		}

		// os.Exit skips deferred closers, so everything held open is
		// released before the exit code is acted on; the browser process
		// in particular must not outlive a failed run
		code := harvestAndReport(
			cmd.Context(),
			platform,
			orderstore.NewStore(database),
			stores, unknown, window,
			*runPageSize,
		)
		database.Close()
		if code != 0 {
			os.Exit(code)
		}
	},
}

// harvestAndReport runs one batch and renders the outcome table. The
// platform is closed here, before the exit code is returned.
func harvestAndReport(
	ctx context.Context,
	platform harvest.Platform,
	sink harvest.Sink,
	stores []harvest.StoreIdentity,
	unknown []string,
	window harvest.Window,
	pageSize int,
) int {
	defer platform.Close()

	batch := &harvest.Batch{
		Platform: platform,
		Sink:     sink,
		PageSize: pageSize,
		Delay:    harvest.RandomDelayer(time.Second, time.Second*3),
	}
	outcome := batch.Run(ctx, stores, unknown, window)
	renderOutcome(outcome)
	return exitCode(outcome)
}

// exitCode maps a batch outcome to the process exit code: 1 when login
// failed outright, 2 when some stores failed, 0 otherwise.
func exitCode(outcome harvest.Outcome) int {
	if outcome.LoginFailed {
		return 1
	}
	if outcome.Failures() > 0 {
		return 2
	}
	return 0
}

func renderOutcome(outcome harvest.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Store", "Day", "Status", "Fetched", "Stored", "Updated", "Rejected", "Failed", "Error"})
	for _, row := range outcome.Stores {
		t.AppendRow(table.Row{
			row.StoreCode,
			row.Day,
			row.Status,
			row.Fetched,
			row.Stored,
			row.Updated,
			row.Rejected,
			row.Failed,
			row.Err,
		})
	}
	t.AppendFooter(table.Row{
		outcome.Platform,
		"",
		fmt.Sprintf("%d failed", outcome.Failures()),
		"", "", "", "", "",
		outcome.Elapsed.Round(time.Second),
	})
	t.Render()

	if outcome.LoginFailed {
		fmt.Fprintln(os.Stderr, "login failed, nothing was harvested")
	}
}
