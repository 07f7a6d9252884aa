// Copyright 2025 The tstserve Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the tstserve suggestion server and its CLI [DBG] mode.

tstserve indexes weighted terms in a ternary search trie and answers prefix or
fuzzy completion requests ranked by weight. It runs as a MessagePack IPC
server over stdin/stdout, or as an interactive CLI for debugging.

# Usage

Start the server with default settings:

	tstserve

Use a custom data directory, fuzzy matching and debug logs:

	tstserve -data /path/to/dicts -fuzzy -distance 1 -d

Run in CLI mode for interactive testing:

	tstserve -c -limit 10 -prmin 2

# Index bootstrap

On start the index is loaded from jaspell.dat in the store directory when
[store] autoload is set. Otherwise it is built from the data directory, which
may hold chunked binary dictionaries (dict_0001.bin, ...) and plain text
"term weight" lists (*.txt), and then stored when [store] autosave is set.

# Configuration

config.toml (or config.yaml via -config) is created with defaults when missing:

	[suggest]
	use_prefix = true
	edit_distance = 2
	default_limit = 10
	max_limit = 64
	only_more_popular = true

	[dict]
	data_dir = "data"
	max_chunks = 0

	[store]
	dir = ""
	autoload = true
	autosave = true

	[server]
	min_prefix = 1
	max_prefix = 60
	enable_filter = true
	reload_every = 0

	[metrics]
	enabled = false
	addr = "127.0.0.1:9464"

Flags override the file for the current run.

# IPC Protocol

See package server for the message formats. A completion round trip:

	{"id": "req1", "p": "hel", "l": 2, "m": true}
	{"id": "req1", "s": [{"w": "help", "v": 9, "r": 1}, {"w": "hello", "v": 3, "r": 2}], "c": 2, "t": 12}

# Metrics

With -metrics addr (or [metrics] enabled) Prometheus metrics are served on
http://addr/metrics next to the IPC loop.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/tstserve/internal/cli"
	"github.com/bastiangx/tstserve/internal/utils"
	"github.com/bastiangx/tstserve/pkg/config"
	"github.com/bastiangx/tstserve/pkg/dictionary"
	"github.com/bastiangx/tstserve/pkg/metrics"
	"github.com/bastiangx/tstserve/pkg/server"
	"github.com/bastiangx/tstserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const (
	Version = "0.1.0"
	AppName = "tstserve"
	gh      = "https://github.com/bastiangx/tstserve"
)

type flags struct {
	showVersion   bool
	debug         bool
	cliMode       bool
	configPath    string
	dataDir       string
	storeDir      string
	limit         int
	popular       bool
	fuzzy         bool
	distance      int
	minPrefix     int
	maxPrefix     int
	noFilter      bool
	chunks        int
	metricsAddr   string
	explicitlySet map[string]bool
}

func parseFlags() *flags {
	defaults := config.DefaultConfig()
	f := &flags{}

	flag.BoolVar(&f.showVersion, "version", false, "Show current version")
	flag.BoolVar(&f.debug, "d", false, "Toggle debug mode")
	flag.BoolVar(&f.cliMode, "c", false, "Run CLI -- useful for testing and debugging")
	flag.StringVar(&f.configPath, "config", "", "Path to a config.toml or config.yaml file")
	flag.StringVar(&f.dataDir, "data", defaults.Dict.DataDir, "Directory containing dictionaries (dict_*.bin, *.txt)")
	flag.StringVar(&f.storeDir, "store", defaults.Store.Dir, "Directory holding jaspell.dat (default: config dir)")
	flag.IntVar(&f.limit, "limit", defaults.CLI.DefaultLimit, "Number of suggestions to return")
	flag.BoolVar(&f.popular, "popular", defaults.Suggest.OnlyMorePopular, "Rank suggestions by weight")
	flag.BoolVar(&f.fuzzy, "fuzzy", false, "Match within an edit distance instead of by prefix")
	flag.IntVar(&f.distance, "distance", defaults.Suggest.EditDistance, "Edit distance for fuzzy matching")
	flag.IntVar(&f.minPrefix, "prmin", defaults.CLI.DefaultMinLen, "Minimum prefix length for suggestions (1 < n <= prmax)")
	flag.IntVar(&f.maxPrefix, "prmax", defaults.CLI.DefaultMaxLen, "Maximum prefix length for suggestions")
	flag.BoolVar(&f.noFilter, "no-filter", defaults.CLI.DefaultNoFilter, "Disable input filtering (DBG only)")
	flag.IntVar(&f.chunks, "chunks", defaults.Dict.MaxChunks, "Number of dictionary chunks to load (0 for all)")
	flag.StringVar(&f.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flag.Parse()

	f.explicitlySet = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) {
		f.explicitlySet[fl.Name] = true
	})
	return f
}

// apply overrides config values with flags given on the command line.
func (f *flags) apply(cfg *config.Config) {
	if f.explicitlySet["data"] {
		cfg.Dict.DataDir = f.dataDir
	}
	if f.explicitlySet["store"] {
		cfg.Store.Dir = f.storeDir
	}
	if f.explicitlySet["popular"] {
		cfg.Suggest.OnlyMorePopular = f.popular
	}
	if f.explicitlySet["fuzzy"] {
		cfg.Suggest.UsePrefix = !f.fuzzy
	}
	if f.explicitlySet["distance"] {
		cfg.Suggest.EditDistance = f.distance
	}
	if f.explicitlySet["chunks"] {
		cfg.Dict.MaxChunks = f.chunks
	}
	if f.explicitlySet["limit"] {
		cfg.Suggest.DefaultLimit = f.limit
		cfg.CLI.DefaultLimit = f.limit
	}
	if f.explicitlySet["prmin"] {
		cfg.Server.MinPrefix = f.minPrefix
		cfg.CLI.DefaultMinLen = f.minPrefix
	}
	if f.explicitlySet["prmax"] {
		cfg.Server.MaxPrefix = f.maxPrefix
		cfg.CLI.DefaultMaxLen = f.maxPrefix
	}
	if f.explicitlySet["no-filter"] {
		cfg.Server.EnableFilter = !f.noFilter
		cfg.CLI.DefaultNoFilter = f.noFilter
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = f.metricsAddr
	}
}

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, the index and the selected front end together.
func main() {
	sigHandler()
	f := parseFlags()

	if f.showVersion {
		showVersion()
		os.Exit(0)
	}

	if f.debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	cfg, configPath, err := config.LoadConfigWithPriority(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	f.apply(cfg)
	log.Debugf("Using config: %s", config.GetActiveConfigPath(configPath))

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Print("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if f.debug {
		for k, v := range pathResolver.GetRuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}
	dataDir := pathResolver.GetDataDir(cfg.Dict.DataDir)
	storeDir := pathResolver.GetStoreDir(cfg.Store.Dir)
	log.Debugf("Using data dir at: %s, store dir at: %s", dataDir, storeDir)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	index := suggest.New(
		suggest.WithPrefix(cfg.Suggest.UsePrefix),
		suggest.WithEditDistance(cfg.Suggest.EditDistance),
		suggest.WithMetrics(m),
	)
	bootstrap(index, cfg, dataDir, storeDir)

	// CLI is for testing and debugging; new behavior should be tried here first.
	if f.cliMode {
		log.SetReportTimestamp(false)
		opts := cli.Options{
			MinPrefix:       cfg.CLI.DefaultMinLen,
			MaxPrefix:       cfg.CLI.DefaultMaxLen,
			Limit:           cfg.CLI.DefaultLimit,
			OnlyMorePopular: cfg.Suggest.OnlyMorePopular,
			NoFilter:        cfg.CLI.DefaultNoFilter,
		}
		log.Debug("Input info:", "minPrefix", opts.MinPrefix, "maxPrefix", opts.MaxPrefix, "limit", opts.Limit, "noFilter", opts.NoFilter)
		if err := cli.NewInputHandler(index, opts).Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	srv := server.NewServer(index, cfg, server.Options{
		ConfigPath: configPath,
		DataDir:    dataDir,
		StoreDir:   storeDir,
		ChunkCount: cfg.Dict.MaxChunks,
		Metrics:    m,
	})
	showStartupInfo(dataDir, index.Stats().Terms)

	if err := serve(srv, m, cfg.Metrics.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// bootstrap loads the persisted trie or builds one from the data directory.
// A failure leaves the index empty; the server can still be told to rebuild.
func bootstrap(index *suggest.Lookup, cfg *config.Config, dataDir, storeDir string) {
	if cfg.Store.Autoload {
		ok, err := index.LoadDir(storeDir)
		if err != nil {
			log.Warnf("Ignoring persisted trie: %v", err)
		}
		if ok {
			log.Debugf("Loaded %s from %s", suggest.FileName, storeDir)
			return
		}
	}

	start := time.Now()
	src, err := dictionary.OpenDir(dataDir, cfg.Dict.MaxChunks)
	if err != nil {
		log.Warnf("No dictionaries available (%v), running with empty index...", err)
		return
	}
	if err := index.Build(src); err != nil {
		log.Errorf("Failed to build index: %v", err)
		return
	}
	log.Debugf("Built index in %v: %+v", time.Since(start), index.Stats())

	if cfg.Store.Autosave {
		if ok, err := index.StoreDir(storeDir); err != nil {
			log.Warnf("Failed to store trie: %v", err)
		} else if ok {
			log.Debugf("Stored %s in %s", suggest.FileName, storeDir)
		}
	}
}

// serve runs the IPC loop and, when m is set, the metrics listener. Both stop
// once the IPC input closes.
func serve(srv *server.Server, m *metrics.Metrics, addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return srv.Start(gctx)
	})

	if m != nil {
		httpServer := m.Server(addr)
		g.Go(func() error {
			log.Debugf("Serving metrics on %s/metrics", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return httpServer.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ tstserve ] Ternary search trie suggestions")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir string, terms int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("==========")
	println(" tstserve ")
	println("==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("terms indexed: %d", terms)
	log.Info("status: ready")
	println("==========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
