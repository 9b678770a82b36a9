package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/soundfield/capture-report/internal/errors"
)

// RawFile is one media file found on disk before enrichment.
type RawFile struct {
	Path      string
	Type      string
	SizeMB    float64
	Timestamp time.Time
}

// timestampPattern matches capture timestamps embedded in file names, in
// the common variants: 20211101_091530, 2021-11-01_09-15-30,
// 2021-11-01 09.15.30.
var timestampPattern = regexp.MustCompile(
	`(\d{4})-?(\d{2})-?(\d{2})[T_ ](\d{2})[-.:]?(\d{2})[-.:]?(\d{2})`)

// parseTimestamp extracts the capture timestamp from a file name. Returns
// false when the name carries none.
func parseTimestamp(name string, loc *time.Location) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	parts := make([]int, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = v
	}
	ts := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, loc)
	if ts.Year() != parts[0] || int(ts.Month()) != parts[1] || ts.Day() != parts[2] {
		return time.Time{}, false
	}
	return ts, true
}

// Scan walks root and collects every file whose extension matches one of
// the wanted types. The capture timestamp comes from the file name when
// present, otherwise from the modification time.
func Scan(ctx context.Context, root string, fileTypes []string, loc *time.Location) ([]RawFile, error) {
	logger := slog.Default().With("service", "ingest")
	if loc == nil {
		loc = time.Local
	}

	var files []RawFile
	fromModTime := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		fileType := NormalizeType(path)
		if !slices.Contains(fileTypes, fileType) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}

		ts, ok := parseTimestamp(d.Name(), loc)
		if !ok {
			ts = info.ModTime().In(loc)
			fromModTime++
		}

		files = append(files, RawFile{
			Path:      path,
			Type:      fileType,
			SizeMB:    float64(info.Size()) / (1024 * 1024),
			Timestamp: ts,
		})
		return nil
	})
	if err != nil {
		return nil, errors.New(err).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("operation", "scan").
			Context("root", root).
			Build()
	}

	if fromModTime > 0 {
		logger.Warn("files without a timestamp in the name fell back to modification time",
			"count", fromModTime)
	}
	logger.Info("scan complete", "root", root, "files", len(files))
	return files, nil
}
