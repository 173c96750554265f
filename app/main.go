package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trading-cockpit/cockpit/app/portfolio"
	"github.com/trading-cockpit/cockpit/app/store"
	"github.com/trading-cockpit/cockpit/app/web"
)

var opts struct {
	Listen      string  `short:"l" long:"listen" env:"COCKPIT_LISTEN" default:":8000" description:"address to listen on"`
	DataDir     string  `short:"d" long:"data" env:"COCKPIT_DATA" default:"data" description:"directory for file-backed collections"`
	DatabaseURL string  `long:"db-url" env:"DATABASE_URL" description:"database connection URL, file backend if empty"`
	Capital     float64 `long:"capital" env:"COCKPIT_CAPITAL" default:"100000" description:"initial account capital, used until set via API"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable write to log file"`
		Filename        string `long:"file" env:"FILE" default:"cockpit.log" description:"location of log file"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum size in megabytes of the log file before it gets rotated"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files to retain"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"determines if the rotated log files should be compressed using gzip"`
	} `group:"log" namespace:"log" env-namespace:"COCKPIT_LOG"`

	Dbg bool `long:"dbg" env:"COCKPIT_DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("cockpit %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] cockpit failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	backend, err := store.New(store.Config{DatabaseURL: opts.DatabaseURL, DataDir: opts.DataDir})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("[WARN] failed to close storage: %v", err)
		}
	}()

	journal := portfolio.NewJournal(backend)
	positions := portfolio.NewPositions(backend, journal)
	watchlist := portfolio.NewWatchlist(backend)
	settings := portfolio.NewSettings(backend)

	if _, ok := settings.Get("capital"); !ok {
		if err := settings.Set("capital", opts.Capital); err != nil {
			return fmt.Errorf("failed to seed capital setting: %w", err)
		}
	}

	srv, err := web.New(web.Config{
		Positions: positions,
		Journal:   journal,
		Watchlist: watchlist,
		Settings:  settings,
		Version:   revision,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	return srv.Run(ctx, opts.Listen)
}

// setupLogs configures console logging and returns the writer used for
// the optional rotated log file.
func setupLogs() io.Writer {
	logOpts := []log.Option{log.Msec, log.LevelBraces}
	if opts.Dbg {
		logOpts = []log.Option{log.Debug, log.CallerFile, log.CallerFunc, log.Msec, log.LevelBraces}
	}

	if !opts.Log.Enabled {
		log.Setup(logOpts...)
		return os.Stdout
	}

	fileLogger := &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
	logOpts = append(logOpts, log.Out(io.MultiWriter(os.Stdout, fileLogger)),
		log.Err(io.MultiWriter(os.Stderr, fileLogger)))
	log.Setup(logOpts...)
	return fileLogger
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM)
}
