package service

import (
	"context"
	"io"
	"os"

	"github.com/emzola/bookshelf/internal/importer"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/gabriel-vasile/mimetype"
)

// maxImportSize caps uploaded import files.
const maxImportSize = 10 << 20

type bookImports interface {
	ImportBooks(ctx context.Context, ownerID, username string, file io.Reader) error
}

// ImportBooks service stores an uploaded CSV export in a temporary file and hands
// it to the import consumers. The import itself runs in the background.
func (s *service) ImportBooks(ctx context.Context, ownerID, username string, file io.Reader) error {
	tmp, err := os.CreateTemp(s.config.Import.TempDir, "bookshelf-import-*.csv")
	if err != nil {
		return err
	}
	path := tmp.Name()
	n, err := io.Copy(tmp, io.LimitReader(file, maxImportSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	if n == 0 || n > maxImportSize {
		os.Remove(path)
		return ErrBadRequest
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		os.Remove(path)
		return err
	}
	if !validator.Mime(mtype, "text/csv", "text/plain", "text/tab-separated-values") {
		os.Remove(path)
		return ErrUnsupportedMediaType
	}
	s.logger.PrintInfo("import queued", map[string]string{"user_id": ownerID, "path": path})
	s.imports.Post(importer.Event{UserID: ownerID, Username: username, Path: path})
	return nil
}
