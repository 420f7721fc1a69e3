package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/engine"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/report"
	"github.com/contactkeval/option-pricer/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to JSON or YAML pricing job")
	rest := flag.Bool("rest", false, "run as REST server (price contracts on request)")
	port := flag.String("port", ":8080", "REST server listen address")
	outDir := flag.String("out", "", "report directory (overrides job report_dir)")
	verbosity := flag.Int("v", -1, "log verbosity 0=errors,1=info,2=debug,3=trace (overrides job)")
	flag.Parse()

	var cfg *config.Config
	switch {
	case *configPath != "":
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	case *rest:
		cfg = config.FromEnv()
		cfg.Verbosity = int(logger.Info)
	default:
		log.Fatalf("-config is required unless -rest is set")
	}

	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	if cfg.Verbosity < int(logger.Error) || cfg.Verbosity > int(logger.Trace) {
		cfg.Verbosity = int(logger.Info)
	}
	logger.SetVerbosity(cfg.Verbosity)
	if *outDir != "" {
		cfg.ReportDir = *outDir
	}

	// job spots first, then the spots file, then market data
	var secondary data.Provider
	if cfg.APIKey != "" {
		secondary = data.NewMassiveProvider(cfg.APIKey, nil)
	} else {
		logger.Infof("no market data key set, using local spots only")
	}
	if cfg.SpotsFile != "" {
		secondary = data.NewLocalCSVProvider(cfg.SpotsFile, secondary)
	}
	prov := data.NewStaticProvider(cfg.Spots, secondary)

	eng := engine.NewEngine(cfg, prov)

	if *rest {
		logger.Infof("starting REST server on %s", *port)
		srv := &http.Server{
			Addr:              *port,
			Handler:           server.New(eng).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Fatal(srv.ListenAndServe())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := eng.Run(ctx)
	if err != nil && res == nil {
		log.Fatalf("pricing failed: %v", err)
	}
	if err != nil {
		logger.Errorf("pricing interrupted: %v", err)
	}

	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		log.Fatalf("creating report dir %s: %v", cfg.ReportDir, err)
	}
	if err := report.WriteJSON(res, cfg.ReportDir); err != nil {
		logger.Errorf("writing json report: %v", err)
	}
	if err := report.WriteCSV(res.Quotes, cfg.ReportDir); err != nil {
		logger.Errorf("writing csv report: %v", err)
	}
	logger.Infof("finished in %v, wrote %d quotes to %s", time.Since(start), len(res.Quotes), cfg.ReportDir)

	if res.Failed > 0 {
		os.Exit(1)
	}
}
