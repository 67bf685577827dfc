package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/emzola/bookshelf/clients"
	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/handler"
	"github.com/emzola/bookshelf/internal/bookdata"
	"github.com/emzola/bookshelf/internal/covers"
	"github.com/emzola/bookshelf/internal/importer"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/repository"
	"github.com/emzola/bookshelf/repository/postgres"
	"github.com/emzola/bookshelf/repository/sqlite"
	"github.com/emzola/bookshelf/service"
	"github.com/jmoiron/sqlx"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	logger  *jsonlog.Logger
	handler *handler.Handler
}

// @title  Bookshelf API
// @version 1.0.0
// @description This is an API service for managing a personal library of books.
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	// Initialize configuration
	cfg, err := config.Decode(*configPath)
	if err != nil {
		logger.PrintFatal(err, nil)
		os.Exit(1)
	}
	level, err := jsonlog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.PrintError(err, nil)
	}
	logger = jsonlog.New(os.Stdout, level)

	// Initialize database connection
	db, err := openDB(cfg)
	if err != nil {
		logger.PrintFatal(err, map[string]string{"driver": cfg.Database.Driver})
		os.Exit(1)
	}
	defer db.Close()
	logger.PrintInfo("database connection pool established", map[string]string{"driver": cfg.Database.Driver})

	coverStore, err := openCoverStore(cfg)
	if err != nil {
		logger.PrintFatal(err, map[string]string{"backend": cfg.Covers.Backend})
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(cfg.BookData.Timeout)
	if err != nil {
		logger.PrintFatal(fmt.Errorf("bookdata timeout: %w", err), nil)
		os.Exit(1)
	}
	cacheTTL, err := time.ParseDuration(cfg.BookData.CacheTTL)
	if err != nil {
		logger.PrintFatal(fmt.Errorf("bookdata cache ttl: %w", err), nil)
		os.Exit(1)
	}
	lookup := bookdata.New(bookdata.Config{
		GoogleBooksURL: cfg.BookData.GoogleBooksURL,
		OpenLibraryURL: cfg.BookData.OpenLibraryURL,
		APIKey:         cfg.BookData.APIKey,
		CacheTTL:       cacheTTL,
	}, clients.NewHTTPClient(timeout), coverStore, logger)
	defer lookup.Close()

	// Background work is tracked so that shutdown can wait for it
	var wg sync.WaitGroup
	bus := importer.NewBus(&wg, logger)

	// Application layers
	repo := repository.New(db)
	svc := service.New(cfg, &wg, logger, repo, lookup, coverStore, bus)
	bus.Subscribe(importer.NewGoodreadsImporter(svc, logger, func(err error) bool {
		return errors.Is(err, service.ErrAlreadyAdded)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = svc.BootstrapAdmin(ctx)
	cancel()
	if err != nil {
		logger.PrintFatal(err, nil)
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		expvar.NewString("version").Set(version)
		expvar.Publish("goroutines", expvar.Func(func() interface{} {
			return runtime.NumGoroutine()
		}))
		expvar.Publish("database", expvar.Func(func() interface{} {
			return db.Stats()
		}))
		expvar.Publish("timestamp", expvar.Func(func() interface{} {
			return time.Now().Unix()
		}))
	}

	app := &app{
		config:  cfg,
		logger:  logger,
		handler: handler.New(cfg, logger, svc),
	}

	// Start HTTP server
	err = app.serve(&wg)
	if err != nil {
		logger.PrintFatal(err, nil)
		os.Exit(1)
	}
}

const version = "1.0.0"

// openDB opens the connection pool of the configured database driver.
func openDB(cfg config.Config) (*sqlx.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.OpenDBConn(cfg)
	case "sqlite":
		return sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// openCoverStore creates the configured cover storage backend.
func openCoverStore(cfg config.Config) (covers.Store, error) {
	switch cfg.Covers.Backend {
	case "dir":
		store, err := covers.NewDirStore(cfg.Covers.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := clients.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return covers.NewS3Store(client, cfg.S3.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported covers backend %q", cfg.Covers.Backend)
	}
}
