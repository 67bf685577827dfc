package service

import (
	"context"
	"sync"

	"github.com/emzola/bookshelf/config"
	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/covers"
	"github.com/emzola/bookshelf/internal/importer"
	"github.com/emzola/bookshelf/internal/jsonlog"
	"github.com/emzola/bookshelf/repository"
)

type Service interface {
	books
	coverImages
	bookImports
	ratings
	tags
	users
	tokens
}

// BookData looks up book metadata by ISBN and downloads cover thumbnails.
type BookData interface {
	SearchBook(ctx context.Context, isbn string) (*data.Book, []string, error)
	DownloadThumbnail(ctx context.Context, bookID, url string) error
}

// ImportSink accepts import requests for asynchronous processing.
type ImportSink interface {
	Post(event importer.Event)
}

// Services defines a service layer.
type service struct {
	config   config.Config
	wg       *sync.WaitGroup
	logger   *jsonlog.Logger
	repo     repository.Repository
	bookData BookData
	covers   covers.Store
	imports  ImportSink
}

// New creates a new instance of Service. Background work is tracked by wg.
func New(cfg config.Config, wg *sync.WaitGroup, logger *jsonlog.Logger, repo repository.Repository, bookData BookData, coverStore covers.Store, imports ImportSink) *service {
	return &service{
		config:   cfg,
		wg:       wg,
		logger:   logger,
		repo:     repo,
		bookData: bookData,
		covers:   coverStore,
		imports:  imports,
	}
}
