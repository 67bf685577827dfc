package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/jsonlog"
)

// BookAdder adds books to a user's library.
type BookAdder interface {
	AddBookByIsbn(ctx context.Context, isbn, ownerID string) (string, error)
	SetReadState(ctx context.Context, userBookID, ownerID string, read bool) error
}

// Summary counts the outcome of an import.
type Summary struct {
	Imported int
	Skipped  int
	Failed   int
}

// GoodreadsImporter imports the CSV export of a Goodreads library. Each row is
// added by ISBN-13, falling back to the ISBN-10 column; rows on the "read"
// shelf or with a read date are marked as read.
type GoodreadsImporter struct {
	books  BookAdder
	logger *jsonlog.Logger
	skip   func(error) bool
}

// NewGoodreadsImporter creates an importer. Rows whose error satisfies skip
// (typically books already in the library) are counted as skipped.
func NewGoodreadsImporter(books BookAdder, logger *jsonlog.Logger, skip func(error) bool) *GoodreadsImporter {
	if skip == nil {
		skip = func(error) bool { return false }
	}
	return &GoodreadsImporter{books: books, logger: logger, skip: skip}
}

// Import satisfies Consumer.
func (g *GoodreadsImporter) Import(ctx context.Context, event Event) error {
	f, err := os.Open(event.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	summary, err := g.ImportCSV(ctx, event.UserID, f)
	if err != nil {
		return err
	}
	g.logger.PrintInfo("import completed", map[string]string{
		"user_id":  event.UserID,
		"username": event.Username,
		"imported": strconv.Itoa(summary.Imported),
		"skipped":  strconv.Itoa(summary.Skipped),
		"failed":   strconv.Itoa(summary.Failed),
	})
	return nil
}

// ImportCSV reads a Goodreads export from r into the library of ownerID.
func (g *GoodreadsImporter) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (Summary, error) {
	var summary Summary
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	_, hasIsbn := columns["ISBN"]
	_, hasIsbn13 := columns["ISBN13"]
	if !hasIsbn && !hasIsbn13 {
		return summary, errors.New("csv has neither an ISBN nor an ISBN13 column")
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return cleanField(record[i])
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read csv line %d: %w", line, err)
		}
		isbn := data.NormalizeIsbn(field(record, "ISBN13"))
		if data.IsbnKind(isbn) == 0 {
			isbn = data.NormalizeIsbn(field(record, "ISBN"))
		}
		if data.IsbnKind(isbn) == 0 {
			summary.Failed++
			g.logger.PrintDebug("import row without isbn", map[string]string{"line": strconv.Itoa(line), "title": field(record, "Title")})
			continue
		}
		userBookID, err := g.books.AddBookByIsbn(ctx, isbn, ownerID)
		if err != nil {
			if g.skip(err) {
				summary.Skipped++
				continue
			}
			summary.Failed++
			g.logger.PrintInfo("import row failed", map[string]string{"line": strconv.Itoa(line), "isbn": isbn, "error": err.Error()})
			continue
		}
		summary.Imported++
		if field(record, "Exclusive Shelf") == "read" || field(record, "Date Read") != "" {
			if err := g.books.SetReadState(ctx, userBookID, ownerID, true); err != nil {
				g.logger.PrintError(err, map[string]string{"line": strconv.Itoa(line), "isbn": isbn})
			}
		}
	}
	return summary, nil
}

// cleanField unwraps the ="..." spreadsheet formula quoting Goodreads uses for ISBNs.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	return strings.Trim(s, `"`)
}
