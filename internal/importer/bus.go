// Package importer delivers book import requests to asynchronous consumers
// and provides the Goodreads CSV importer.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/emzola/bookshelf/internal/jsonlog"
)

// Event asks for the file at Path to be imported into the library of UserID.
// The bus removes the file after every consumer has handled the event.
type Event struct {
	UserID   string
	Username string
	Path     string
}

// Consumer handles import events.
type Consumer interface {
	Import(ctx context.Context, event Event) error
}

// Bus delivers every posted event exactly once to each subscribed consumer,
// each delivery on its own goroutine tracked by the bus WaitGroup.
type Bus struct {
	mu        sync.RWMutex
	consumers []Consumer
	wg        *sync.WaitGroup
	logger    *jsonlog.Logger
}

// NewBus creates a Bus whose deliveries are tracked by wg, so that the
// server can wait for running imports during shutdown.
func NewBus(wg *sync.WaitGroup, logger *jsonlog.Logger) *Bus {
	return &Bus{wg: wg, logger: logger}
}

// Subscribe registers a consumer for all subsequently posted events.
func (b *Bus) Subscribe(c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = append(b.consumers, c)
}

// Post dispatches event to the subscribed consumers and returns immediately.
// The file at event.Path is removed once every consumer is done with it.
func (b *Bus) Post(event Event) {
	b.mu.RLock()
	consumers := append([]Consumer(nil), b.consumers...)
	b.mu.RUnlock()
	if len(consumers) == 0 {
		b.logger.PrintError(fmt.Errorf("no consumer for import event"), map[string]string{"user_id": event.UserID, "path": event.Path})
		b.removeFile(event)
		return
	}
	var pending sync.WaitGroup
	pending.Add(len(consumers))
	b.wg.Add(len(consumers) + 1)
	for _, c := range consumers {
		c := c
		go func() {
			defer b.wg.Done()
			defer pending.Done()
			defer func() {
				if err := recover(); err != nil {
					b.logger.PrintError(fmt.Errorf("%s", err), map[string]string{"user_id": event.UserID})
				}
			}()
			if err := c.Import(context.Background(), event); err != nil {
				b.logger.PrintError(err, map[string]string{"user_id": event.UserID, "username": event.Username})
			}
		}()
	}
	go func() {
		defer b.wg.Done()
		pending.Wait()
		b.removeFile(event)
	}()
}

func (b *Bus) removeFile(event Event) {
	if event.Path == "" {
		return
	}
	if err := os.Remove(event.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.PrintError(err, map[string]string{"path": event.Path})
	}
}
