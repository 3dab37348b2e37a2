package pack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zip"

	"mineardmg/internal/fileutil"
	"mineardmg/internal/logging"
	"mineardmg/internal/services"
)

const lockRetryDelay = 200 * time.Millisecond

// MissingPolicy decides what happens to paths whose hash has no result.
type MissingPolicy int

const (
	// MissingStrict fails assembly.
	MissingStrict MissingPolicy = iota
	// MissingSkip omits the affected paths and lists them in Archive.Skipped.
	MissingSkip
)

// ParseMissingPolicy maps "strict" and "skip" to a policy.
func ParseMissingPolicy(value string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "strict":
		return MissingStrict, nil
	case "skip":
		return MissingSkip, nil
	default:
		return MissingStrict, fmt.Errorf("unknown missing policy %q", value)
	}
}

func (p MissingPolicy) String() string {
	if p == MissingSkip {
		return "skip"
	}
	return "strict"
}

// ResultSource supplies processed bytes by hash.
type ResultSource interface {
	Load(hash string) ([]byte, bool)
}

// Request describes one archive to build.
type Request struct {
	Output      string
	PackVersion int
	GainDB      int
	Lookup      *PathLookup
	Results     ResultSource
	Policy      MissingPolicy
	// Modified stamps every entry; zero means now.
	Modified time.Time
	Logger   *slog.Logger
}

// Archive summarizes a written archive.
type Archive struct {
	Path    string
	Entries int
	Bytes   int64
	Skipped []string
}

// MissingResultError reports a hash that has paths but no processed bytes.
type MissingResultError struct {
	Hash  string
	Paths []string
}

func (e *MissingResultError) Error() string {
	return fmt.Sprintf("no processed result for %s (needed by %s)", e.Hash, strings.Join(e.Paths, ", "))
}

type entry struct {
	path string
	hash string
}

// Assemble writes the archive described by req. On any error the target is
// left exactly as it was.
func Assemble(ctx context.Context, req Request) (*Archive, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(req.Logger, "pack")

	entries, skipped, err := plan(req)
	if err != nil {
		return nil, err
	}

	output, err := filepath.Abs(req.Output)
	if err != nil {
		return nil, services.Wrap(services.ErrPackaging, "package", "resolve output", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, services.Wrap(services.ErrPackaging, "package", "create output directory", "", err)
	}

	lock := flock.New(output + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return nil, services.Wrap(services.ErrPackaging, "package", "lock output", output, err)
	}
	defer func() { _ = lock.Unlock() }()

	modified := req.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	file, err := fileutil.CreateAtomic(output, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrPackaging, "package", "create archive", "", err)
	}
	written, err := writeArchive(ctx, file, req, entries, modified)
	if err != nil {
		file.Abort()
		return nil, err
	}
	if err := file.Commit(); err != nil {
		return nil, services.Wrap(services.ErrPackaging, "package", "commit archive", "", err)
	}

	archive := &Archive{Path: output, Entries: len(entries) + 1, Bytes: written, Skipped: skipped}
	logger.Info("archive written",
		logging.String("path", output),
		logging.Int("entries", archive.Entries),
		logging.Int64("bytes", archive.Bytes),
		logging.Int("skipped", len(skipped)),
	)
	if len(skipped) > 0 {
		logging.WarnWithContext(logger, "sounds left out of archive", "pack_partial",
			logging.Int("skipped", len(skipped)),
			logging.String(logging.FieldErrorHint, "rerun the build to retry failed sounds"),
			logging.String(logging.FieldImpact, "the game plays vanilla audio for skipped sounds"),
		)
	}
	return archive, nil
}

func validate(req Request) error {
	switch {
	case strings.TrimSpace(req.Output) == "":
		return services.Wrap(services.ErrPackaging, "package", "request", "output path required", nil)
	case req.Lookup == nil:
		return services.Wrap(services.ErrPackaging, "package", "request", "path lookup required", nil)
	case req.Results == nil:
		return services.Wrap(services.ErrPackaging, "package", "request", "result source required", nil)
	case req.PackVersion < 1:
		return services.Wrap(services.ErrPackaging, "package", "request", fmt.Sprintf("invalid pack version %d", req.PackVersion), nil)
	}
	return nil
}

// plan resolves every path before any file is created, so a strict failure
// never touches the filesystem.
func plan(req Request) ([]entry, []string, error) {
	var (
		entries []entry
		skipped []string
	)
	for _, p := range req.Lookup.SortedPaths() {
		hash, _ := req.Lookup.HashFor(p)
		if !validEntryName(p) || p == MetadataName {
			return nil, nil, services.Wrap(services.ErrPackaging, "package", "plan", fmt.Sprintf("invalid archive path %q", p), nil)
		}
		if _, ok := req.Results.Load(hash); !ok {
			if req.Policy == MissingStrict {
				return nil, nil, services.Wrap(services.ErrPackaging, "package", "plan", "",
					&MissingResultError{Hash: hash, Paths: req.Lookup.Paths(hash)})
			}
			skipped = append(skipped, p)
			continue
		}
		entries = append(entries, entry{path: p, hash: hash})
	}
	sort.Strings(skipped)
	return entries, skipped, nil
}

func validEntryName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	return path.Clean(name) == name && !strings.HasPrefix(name, "../") && name != ".."
}

func writeArchive(ctx context.Context, w io.Writer, req Request, entries []entry, modified time.Time) (int64, error) {
	counter := &countingWriter{w: w}
	zw := zip.NewWriter(counter)

	meta, err := Metadata(req.PackVersion, req.GainDB)
	if err != nil {
		return 0, services.Wrap(services.ErrPackaging, "package", "metadata", "", err)
	}
	if err := writeEntry(zw, MetadataName, meta, zip.Deflate, modified); err != nil {
		return 0, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return 0, services.Wrap(services.ErrPackaging, "package", "write", "", err)
		}
		data, ok := req.Results.Load(e.hash)
		if !ok {
			return 0, services.Wrap(services.ErrPackaging, "package", "write", "",
				&MissingResultError{Hash: e.hash, Paths: []string{e.path}})
		}
		// Ogg payloads are already compressed.
		if err := writeEntry(zw, e.path, data, zip.Store, modified); err != nil {
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		return 0, services.Wrap(services.ErrPackaging, "package", "finalize", "", err)
	}
	return counter.n, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, method uint16, modified time.Time) error {
	header := &zip.FileHeader{Name: name, Method: method, Modified: modified}
	header.SetMode(0o644)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return services.Wrap(services.ErrPackaging, "package", "write", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return services.Wrap(services.ErrPackaging, "package", "write", name, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
