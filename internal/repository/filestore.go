package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"AethFlow/internal/domain/models"
)

// LocalFileStore keeps uploads and processed results on the local disk,
// one directory for each. Names are sanitized so a crafted filename can
// never escape the storage root.
type LocalFileStore struct {
	uploadDir  string
	resultsDir string
}

func NewLocalFileStore(uploadDir, resultsDir string) (*LocalFileStore, error) {
	for _, dir := range []string{uploadDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &LocalFileStore{uploadDir: uploadDir, resultsDir: resultsDir}, nil
}

func (s *LocalFileStore) SaveUpload(name string, r io.Reader) (string, error) {
	path := filepath.Join(s.uploadDir, sanitizeName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// WriteResult writes processed records as CSV. Missing values become empty
// cells rather than NaN so downstream spreadsheet tools read them as blanks.
func (s *LocalFileStore) WriteResult(name string, records []models.ProcessedRecord) (string, error) {
	path := filepath.Join(s.resultsDir, sanitizeName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "rawBC", "processedBC", "atn"}); err != nil {
		return "", fmt.Errorf("write result header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			formatCell(rec.RawBC),
			formatCell(rec.ProcessedBC),
			formatCell(rec.Attenuation),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write result row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush result: %w", err)
	}
	return path, nil
}

func (s *LocalFileStore) OpenResult(name string) (io.ReadCloser, error) {
	path, err := s.ResultPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open result: %w", err)
	}
	return f, nil
}

func (s *LocalFileStore) ResultPath(name string) (string, error) {
	path := filepath.Join(s.resultsDir, sanitizeName(name))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("result %s: %w", name, err)
	}
	return path, nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func sanitizeName(name string) string {
	name = filepath.Base(filepath.Clean(name))
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "unnamed"
	}
	return name
}
