package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/clearpath/warehouse-flow/config"
	checkinRepo "github.com/clearpath/warehouse-flow/internal/checkin/repository"
	checkoutRepo "github.com/clearpath/warehouse-flow/internal/checkout/repository"
	"github.com/clearpath/warehouse-flow/internal/eventlog"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/dto"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/usecase"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	company    string
	start      string
	end        string
	countsFile string
	match      string
	timezone   string
	threshold  int
	jsonOutput bool
	verbose    bool
}

func newReportCmd() *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print expected stock for a date range",
		Long: `Replays every approved check-in and check-out reviewed up to the end
date. Events on or before the start date form the starting balance.

Example:
  jarde report --company acme --start 2024-01-01 --end 2024-01-31 --counts counts.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.company, "company", "", "Company id (default all companies)")
	f.StringVar(&opts.start, "start", "", "Start date, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "End date, YYYY-MM-DD, inclusive")
	f.StringVar(&opts.countsFile, "counts", "", "YAML file with physical counts")
	f.StringVar(&opts.match, "match", string(jarde.MatchByName), "Row matching: name or id")
	f.StringVar(&opts.timezone, "timezone", "", "IANA zone dates are read in (default from RECONCILIATION_TIMEZONE)")
	f.IntVar(&opts.threshold, "threshold", 0, "Smallest variance classified as significant (default from config)")
	f.BoolVarP(&opts.jsonOutput, "json", "j", false, "Output in JSON format")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runReport(cmd *cobra.Command, opts *reportOptions) error {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	tz := cfg.Reconciliation.Timezone
	if opts.timezone != "" {
		tz = opts.timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	threshold := cfg.Reconciliation.MinorThreshold
	if opts.threshold > 0 {
		threshold = opts.threshold
	}

	var actuals []jarde.ActualCount
	if opts.countsFile != "" {
		f, err := os.Open(opts.countsFile)
		if err != nil {
			return fmt.Errorf("failed to open counts file: %w", err)
		}
		actuals, err = ReadCounts(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	log := logger.NewNop()
	if opts.verbose {
		log = logger.NewZapLogger(&logger.ZapLoggerConfig{
			IsDevelopment: true,
			Encoding:      "console",
			Level:         "debug",
		})
		defer log.Sync()
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	events := eventlog.NewReader(checkinRepo.NewPGRepository(db), checkoutRepo.NewPGRepository(db))
	uc := usecase.NewReconciliationUseCase(events, loc, threshold, log)

	input := &dto.GenerateInput{
		Start:   opts.start,
		End:     opts.end,
		Match:   jarde.MatchMode(opts.match),
		Actuals: actuals,
	}
	if opts.company != "" {
		input.CompanyID = &opts.company
	}

	report, err := uc.Generate(cmd.Context(), input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		data, err := json.MarshalIndent(report, "", "    ")
		if err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	return WriteTable(out, report)
}
