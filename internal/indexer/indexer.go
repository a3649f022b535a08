// Package indexer imports note files into the store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

// Ingester embeds and saves a note.
type Ingester interface {
	Ingest(ctx context.Context, in *models.NoteInput) (models.Note, error)
}

// Indexer turns files into notes. Notes are immutable, so a file whose title and content
// already exist as a note is skipped rather than stored twice.
type Indexer struct {
	ingester  Ingester
	store     storage.VectorStore
	extractor *extract.Extractor
	ignore    []string
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, file skipped, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithIgnore sets doublestar patterns for paths that are never imported. Patterns are
// matched against the slash-separated path relative to the directory being walked.
func WithIgnore(patterns []string) IndexerOption {
	return func(idx *Indexer) { idx.ignore = patterns }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, IndexFile treats all files as plain text.
func NewIndexer(ingester Ingester, store storage.VectorStore, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		ingester:  ingester,
		store:     store,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexFile reads a file and ingests it as a note titled with the file name (without
// extension) unless markdown front matter names a title. It returns false without error
// when the file is empty or already stored. If allowedExts is non-empty, the file's
// extension must be in the list (case-insensitive).
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return false, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}

	doc, err := idx.extractor.Extract(absPath)
	if err != nil {
		return false, fmt.Errorf("extract %s: %w", absPath, err)
	}
	in := &models.NoteInput{Title: doc.Title, Content: Preprocess(doc.Text)}
	if err := in.Validate(); err != nil || in.Content == "" {
		idx.logger.Debug("indexer skipping empty file", zap.String("path", absPath))
		return false, nil
	}

	exists, err := idx.store.Exists(ctx, in.Title, in.Content)
	if err != nil {
		return false, err
	}
	if exists {
		idx.logger.Debug("indexer skipping already stored file", zap.String("path", absPath))
		return false, nil
	}

	note, err := idx.ingester.Ingest(ctx, in)
	if err != nil {
		return false, fmt.Errorf("ingest %s: %w", absPath, err)
	}
	idx.logger.Info("file imported",
		zap.String("path", absPath),
		zap.Int64("note_id", note.ID))
	return true, nil
}

// IndexPattern imports every regular file matching a doublestar pattern such as
// "notes/**/*.md". Files that fail are logged and reported together; the rest are still
// imported. Returns the number of new notes.
func (idx *Indexer) IndexPattern(ctx context.Context, pattern string, allowedExts []string) (int, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return 0, fmt.Errorf("invalid pattern %q", pattern)
	}
	base, rel := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rel)
	if err != nil {
		return 0, fmt.Errorf("glob %q: %w", pattern, err)
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if idx.Ignored(m) {
			continue
		}
		paths = append(paths, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
	}
	return idx.indexPaths(ctx, paths, allowedExts)
}

// IndexDirectory walks dir recursively and imports each regular file whose extension is
// in allowedExts (all supported files when empty). Returns the number of new notes.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, _ := filepath.Rel(absDir, path)
		if rel != "." && idx.Ignored(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return idx.indexPaths(ctx, paths, allowedExts)
}

// Ignored reports whether a slash-separated relative path matches an ignore pattern.
func (idx *Indexer) Ignored(rel string) bool {
	for _, p := range idx.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Accepts reports whether path has an extension the indexer will import.
func (idx *Indexer) Accepts(path string, allowedExts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if len(allowedExts) > 0 {
		return extensionAllowed(ext, allowedExts)
	}
	return idx.extractor.Supported(ext)
}

// Filter returns a predicate for paths under roots: directories pass unless ignored, and
// files also need an accepted extension. Paths outside every root are rejected.
func (idx *Indexer) Filter(roots []string, allowedExts []string) func(path string, isDir bool) bool {
	return func(path string, isDir bool) bool {
		for _, root := range roots {
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			if rel != "." && idx.Ignored(filepath.ToSlash(rel)) {
				return false
			}
			return isDir || idx.Accepts(path, allowedExts)
		}
		return false
	}
}

func (idx *Indexer) indexPaths(ctx context.Context, paths []string, allowedExts []string) (int, error) {
	var (
		n    int
		errs []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() || !idx.Accepts(path, allowedExts) {
			continue
		}
		created, err := idx.IndexFile(ctx, path, allowedExts)
		if err != nil {
			idx.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if created {
			n++
		}
	}
	return n, errors.Join(errs...)
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
