package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/frankli0324/go-browse/internal"
	"github.com/frankli0324/go-browse/internal/config"
	"github.com/frankli0324/go-browse/internal/logging"
)

func main() {
	dev := flag.Bool("dev", false, "development logging")
	raw := flag.Bool("raw", false, "print bodies as received instead of as text")
	noPool := flag.Bool("no-pool", false, "open a new connection for every fetch")
	metricsAddr := flag.String("metrics", "", "serve prometheus metrics on this address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development || *dev,
	})
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("bad logging config, using defaults", zap.Error(err))
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s, err := internal.NewSessionFromConfig(cfg, logger, reg)
	if err != nil {
		logger.Fatal("failed to set up session", zap.Error(err))
	}
	defer s.Close()
	if *noPool {
		s.DisablePooling()
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, reg, logger)
	}

	r := &repl{s: s, out: os.Stdout, status: os.Stderr, raw: *raw}
	for _, arg := range flag.Args() {
		r.exec(context.Background(), "go "+arg)
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !in.Scan() {
			break
		}
		// Ctrl-C abandons the command in flight instead of the program
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		quit := r.exec(ctx, in.Text())
		stop()
		if quit {
			break
		}
	}

	if cfg.Bookmarks.File != "" {
		if err := s.Bookmarks().Save(cfg.Bookmarks.File); err != nil {
			logger.Error("failed to save bookmarks", zap.String("file", cfg.Bookmarks.File), zap.Error(err))
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener stopped", zap.Error(err))
	}
}
