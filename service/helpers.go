package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/emzola/bookshelf/data"
)

// background launches a background goroutine and recovers from panics inside
// the goroutine. It accepts an arbitrary function as a parameter and executes
// the function parameter inside the goroutine.
func (s *service) background(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				s.logger.PrintError(fmt.Errorf("%s", err), nil)
			}
		}()
		fn()
	}()
}

// parsePublishDate parses a client supplied YYYY-MM-DD date.
func parsePublishDate(s string) (time.Time, bool) {
	t, err := time.Parse(data.PublishDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeIsbnField normalizes an optional ISBN in place. Empty values are kept
// so that validation can tell "cleared" from "absent".
func normalizeIsbnField(isbn *string) {
	if isbn != nil && *isbn != "" {
		*isbn = data.NormalizeIsbn(*isbn)
	}
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	return data.StringOrNil(strings.TrimSpace(s))
}

// uniqueIDs drops duplicates and blanks while keeping the first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
