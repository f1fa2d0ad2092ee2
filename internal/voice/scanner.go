package voice

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-utils/internal/core"
)

// ArchiveExt is the extension of voice files.
const ArchiveExt = ".npz"

// Entry is one readable voice file.
type Entry struct {
	Name     string
	Metadata Metadata
}

// Scanner reads metadata from many voice files. A file that cannot be read is
// logged and skipped; it never aborts the scan.
type Scanner struct {
	log *logger.Logger
}

// NewScanner creates a Scanner that reports skipped files to log.
func NewScanner(log *logger.Logger) *Scanner {
	return &Scanner{log: log}
}

// ScanDir reads every .npz file below dir, in lexical order. Names are paths
// relative to dir. Only an unreadable dir itself is an error; unreadable
// subdirectories are logged and skipped.
func (s *Scanner) ScanDir(ctx context.Context, dir string) ([]Entry, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}

			s.log.Warn("Skipping unreadable voice path %s: %v", path, err)

			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if !entry.IsDir() && isArchive(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk voice directory %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return entries, fmt.Errorf("voice scan interrupted: %w", err)
		}

		meta, err := ReadMetadataFile(path)
		if err != nil {
			s.log.Warn("Skipping voice file %s: %v", path, err)

			continue
		}

		name, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			name = path
		}

		entries = append(entries, Entry{Name: name, Metadata: meta})
	}

	s.log.Info("Scanned %d voice files in %s, %d readable", len(paths), dir, len(entries))

	return entries, nil
}

// ScanStore reads every .npz object in store.
func (s *Scanner) ScanStore(ctx context.Context, store core.ObjectStore) ([]Entry, error) {
	keys, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice files: %w", err)
	}

	entries := make([]Entry, 0, len(keys))
	scanned := 0

	for _, key := range keys {
		if !isArchive(key) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return entries, fmt.Errorf("voice scan interrupted: %w", err)
		}

		scanned++

		data, err := store.Download(ctx, key)
		if err != nil {
			s.log.Warn("Skipping voice object %s: %v", key, err)

			continue
		}

		meta, err := ReadMetadataBytes(data)
		if err != nil {
			s.log.Warn("Skipping voice object %s: %v", key, err)

			continue
		}

		entries = append(entries, Entry{Name: key, Metadata: meta})
	}

	s.log.Info("Scanned %d voice objects, %d readable", scanned, len(entries))

	return entries, nil
}

// Publish uploads every readable .npz file below dir to store, keyed by its
// slash-separated path relative to dir. Unreadable files are skipped.
func (s *Scanner) Publish(ctx context.Context, dir string, store core.ObjectStore) (int, error) {
	entries, err := s.ScanDir(ctx, dir)
	if err != nil {
		return 0, err
	}

	published := 0

	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.Name))
		if err != nil {
			s.log.Warn("Skipping voice file %s: %v", entry.Name, err)

			continue
		}

		key := filepath.ToSlash(entry.Name)

		err = store.Upload(ctx, key, data)
		if err != nil {
			return published, fmt.Errorf("failed to upload voice %s: %w", key, err)
		}

		published++
	}

	s.log.Info("Published %d voice files from %s", published, dir)

	return published, nil
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArchiveExt)
}
