// Command bondval prices a list of fixed-rate bonds read from a ';'-delimited
// file and prints a clean-price report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"

	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/config"
	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/logging"
	"github.com/meenmo/bondval/metrics"
	"github.com/meenmo/bondval/records"
	"github.com/meenmo/bondval/report"
	"github.com/meenmo/bondval/utils"
	"github.com/meenmo/bondval/valuation"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// flagKeys maps CLI flag names onto config keys. Only flags the user set
// override lower layers.
var flagKeys = map[string]string{
	"input":            "input_file",
	"format":           "output_format",
	"valuation-date":   "valuation_date",
	"calendar":         "calendar",
	"day-count":        "day_count",
	"maturity-rule":    "maturity_rule",
	"compounding":      "compounding",
	"on-error":         "on_error",
	"locale":           "locale",
	"workers":          "workers",
	"metrics-textfile": "metrics_textfile",
	"log-level":        "log_level",
	"log-format":       "log_format",
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(stderr, "bondval: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "bondval",
		Usage:     "price fixed-rate bonds on a flat curve at their own coupon",
		ArgsUsage: "[input-file]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file (or $" + config.EnvConfigFile + ")"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "bond list, ';'-delimited with a header line"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: table, json or yaml"},
			&cli.StringFlag{Name: "valuation-date", Usage: "anchor date YYYY-MM-DD, rolled to a business day"},
			&cli.StringFlag{Name: "calendar", Usage: "TARGET or WEEKENDS"},
			&cli.StringFlag{Name: "day-count", Usage: "ACT/ACT ISDA, ACT/360, ACT/365F or 30E/360"},
			&cli.StringFlag{Name: "maturity-rule", Usage: "days365, calendar_years or business_days"},
			&cli.StringFlag{Name: "compounding", Usage: "annual, continuous or simple"},
			&cli.StringFlag{Name: "on-error", Usage: "abort or skip"},
			&cli.StringFlag{Name: "locale", Usage: "BCP 47 tag for table numbers, e.g. pt-BR"},
			&cli.IntFlag{Name: "workers", Usage: "concurrent valuations"},
			&cli.StringFlag{Name: "metrics-textfile", Usage: "write Prometheus metrics to this file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return execute(ctx, c, stdout, stderr)
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "workers" {
			out[key] = c.Int(flag)
			continue
		}
		out[key] = c.String(flag)
	}
	if c.Args().Present() && !c.IsSet("input") {
		out["input_file"] = c.Args().First()
	}
	return out
}

func execute(ctx context.Context, c *cli.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load(ctx, c.String("config"), overrides(c))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}
	log := logger.WithField("run_id", uuid.NewString())

	mgr := metrics.NewManager()
	defer func() {
		if werr := mgr.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.WithError(werr).Error("metrics textfile not written")
		}
	}()

	recs, err := loadRecords(cfg, log, mgr)
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, log, mgr)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"anchor":  utils.FormatDate(engine.AnchorDate()),
		"records": len(recs),
	}).Info("valuation started")

	results, err := engine.Value(ctx, recs)
	if err != nil {
		return err
	}

	printer, err := newPrinter(cfg, stdout)
	if err != nil {
		return err
	}
	return printer.Print(recs, results)
}

func loadRecords(cfg *config.Config, log logrus.FieldLogger, mgr *metrics.Manager) ([]records.BondRecord, error) {
	policy := records.ErrorPolicyAbort
	if cfg.OnError == "skip" {
		policy = records.ErrorPolicySkip
	}

	res, err := records.Load(cfg.InputFile, records.WithErrorPolicy(policy), records.WithLogger(log))
	switch {
	case errors.Is(err, records.ErrSourceUnavailable):
		log.WithError(err).WithField("input", cfg.InputFile).Warn("input unavailable, reporting no bonds")
		return []records.BondRecord{}, nil
	case err != nil:
		var perr *records.ParseError
		if errors.As(err, &perr) {
			mgr.ParseErrors(1)
		}
		return nil, err
	}

	mgr.RecordsLoaded(len(res.Records))
	mgr.ParseErrors(len(res.Errors))
	return res.Records, nil
}

func newEngine(cfg *config.Config, log logrus.FieldLogger, mgr *metrics.Manager) (*valuation.Engine, error) {
	anchor, err := utils.ParseDate(cfg.ValuationDate)
	if err != nil {
		return nil, err
	}
	rule, err := valuation.ParseMaturityRule(cfg.MaturityRule)
	if err != nil {
		return nil, err
	}
	comp, err := curve.ParseCompounding(cfg.Compounding)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.Parse(cfg.Calendar)
	if err != nil {
		return nil, err
	}

	policy := valuation.ErrorPolicyAbort
	if cfg.OnError == "skip" {
		policy = valuation.ErrorPolicyIsolate
	}

	return valuation.NewEngine(
		valuation.WithAnchorDate(anchor),
		valuation.WithCalendar(cal),
		valuation.WithDayCount(cfg.DayCount),
		valuation.WithMaturityRule(rule),
		valuation.WithCompounding(comp),
		valuation.WithErrorPolicy(policy),
		valuation.WithWorkers(cfg.Workers),
		valuation.WithLogger(log),
		valuation.WithMetrics(mgr),
	)
}

func newPrinter(cfg *config.Config, w io.Writer) (*report.Printer, error) {
	format, err := report.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	opts := []report.Option{
		report.WithFormat(format),
		report.WithPriceDecimals(cfg.PriceDecimals),
	}
	if cfg.Locale != "" {
		tag, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", cfg.Locale, err)
		}
		opts = append(opts, report.WithLocale(tag))
	}
	return report.NewPrinter(w, opts...), nil
}
