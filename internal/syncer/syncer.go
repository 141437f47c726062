// Package syncer mirrors local media files to the object store and removes
// local copies once they are safely remote.
//
// Per-object failures never abort a batch: each file yields a Result, a log
// line and a metric, and processing moves on to the next file.
package syncer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/mediaoffload/internal/filex"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
	"github.com/dmitrijs2005/mediaoffload/internal/objectstore"
	"github.com/dmitrijs2005/mediaoffload/internal/paths"
)

type Status string

const (
	StatusOK         Status = "ok"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusOutOfScope Status = "out_of_scope"
	StatusMissing    Status = "missing"
)

const (
	opUpload = "upload"
	opDelete = "delete"
)

// Result describes what happened to one file.
type Result struct {
	Path         string
	Key          string
	Status       Status
	Err          error
	LocalRemoved bool
	Reclaimed    []string
}

type Syncer struct {
	store       objectstore.Store
	paths       *paths.Translator
	reclaimer   *filex.Reclaimer
	logger      logging.Logger
	metrics     *Metrics
	concurrency int
	detect      func(path string) string
}

type Option func(*Syncer)

// WithStore enables remote sync. A Syncer without a store runs local-only.
func WithStore(store objectstore.Store) Option {
	return func(s *Syncer) { s.store = store }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithContentTypeDetector(fn func(path string) string) Option {
	return func(s *Syncer) { s.detect = fn }
}

func New(translator *paths.Translator, reclaimer *filex.Reclaimer, opts ...Option) *Syncer {
	s := &Syncer{
		paths:       translator,
		reclaimer:   reclaimer,
		logger:      logging.NewNop(),
		concurrency: 1,
		detect:      objectstore.DetectContentType,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether an object store is configured.
func (s *Syncer) Enabled() bool {
	return s.store != nil
}

func (s *Syncer) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Upload puts one local file under its object key.
func (s *Syncer) Upload(ctx context.Context, localPath string) Result {
	res := Result{Path: localPath}
	log := s.log(ctx)

	if !s.Enabled() {
		log.Info(ctx, "remote sync disabled, skipping upload", "path", localPath)
		res.Status = StatusSkipped
		s.metrics.observe(opUpload, res.Status, 0)
		return res
	}

	key, err := s.paths.ObjectKey(localPath)
	if err != nil {
		log.Debug(ctx, "path outside media directory, skipping upload", "path", localPath)
		res.Status = StatusOutOfScope
		s.metrics.observe(opUpload, res.Status, 0)
		return res
	}
	res.Key = key

	f, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(ctx, "local file missing, skipping upload", "path", localPath, "key", key)
			res.Status = StatusMissing
		} else {
			log.Error(ctx, "cannot open local file", "path", localPath, "key", key, "error", err)
			res.Status, res.Err = StatusFailed, err
		}
		s.metrics.observe(opUpload, res.Status, 0)
		return res
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error(ctx, "cannot stat local file", "path", localPath, "key", key, "error", err)
		res.Status, res.Err = StatusFailed, err
		s.metrics.observe(opUpload, res.Status, 0)
		return res
	}

	contentType := s.detect(localPath)

	start := time.Now()
	err = s.store.Put(ctx, key, f, info.Size(), contentType)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		log.Error(ctx, "upload failed", "key", key, "bucket", s.store.Bucket(), "error", objectstore.ErrorMessage(err))
		res.Status, res.Err = StatusFailed, err
		s.metrics.observe(opUpload, res.Status, elapsed)
		return res
	}

	log.Info(ctx, "uploaded", "key", key, "bucket", s.store.Bucket(), "content_type", contentType, "size", info.Size())
	res.Status = StatusOK
	s.metrics.observe(opUpload, res.Status, elapsed)
	s.metrics.uploaded(info.Size())
	return res
}

// Offload uploads a local file and, only when the upload succeeded, removes
// the local copy and reclaims emptied directories.
func (s *Syncer) Offload(ctx context.Context, localPath string) Result {
	res := s.Upload(ctx, localPath)
	if res.Status != StatusOK {
		return res
	}
	res.LocalRemoved, res.Reclaimed = s.removeLocal(ctx, localPath)
	return res
}

// Delete removes an object by its relative path, then the local copy if
// present, then any directories left empty. Nothing happens in local-only
// mode. The local removal is attempted even when the remote delete failed.
func (s *Syncer) Delete(ctx context.Context, relativePath string) Result {
	res := Result{Path: relativePath}
	log := s.log(ctx)

	if !s.Enabled() {
		log.Info(ctx, "remote sync disabled, skipping delete", "path", relativePath)
		res.Status = StatusSkipped
		s.metrics.observe(opDelete, res.Status, 0)
		return res
	}

	localPath := s.paths.LocalPath(relativePath)
	key, err := s.paths.ObjectKey(localPath)
	if err != nil {
		log.Debug(ctx, "path outside media directory, skipping delete", "path", relativePath)
		res.Status = StatusOutOfScope
		s.metrics.observe(opDelete, res.Status, 0)
		return res
	}
	res.Key = key

	start := time.Now()
	err = s.store.Delete(ctx, key)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		log.Error(ctx, "remote delete failed", "key", key, "bucket", s.store.Bucket(), "error", objectstore.ErrorMessage(err))
		res.Status, res.Err = StatusFailed, err
	} else {
		log.Info(ctx, "deleted remote object", "key", key, "bucket", s.store.Bucket())
		res.Status = StatusOK
	}
	s.metrics.observe(opDelete, res.Status, elapsed)

	res.LocalRemoved, res.Reclaimed = s.removeLocal(ctx, localPath)
	return res
}

func (s *Syncer) removeLocal(ctx context.Context, localPath string) (bool, []string) {
	log := s.log(ctx)

	removed, err := filex.RemoveIfExists(localPath)
	if err != nil {
		log.Warn(ctx, "cannot remove local file", "path", localPath, "error", err)
	} else if removed {
		log.Debug(ctx, "removed local file", "path", localPath)
	}

	var dirs []string
	if s.reclaimer != nil {
		dirs, err = s.reclaimer.Reclaim(localPath)
		if err != nil {
			log.Warn(ctx, "directory reclaim stopped", "path", localPath, "error", err)
		}
		for _, d := range dirs {
			log.Debug(ctx, "removed empty directory", "dir", d)
		}
	}

	s.metrics.removed(removed, len(dirs))
	return removed, dirs
}

// OffloadAll runs Offload for every path, up to the configured concurrency
// at a time. Results are in input order.
func (s *Syncer) OffloadAll(ctx context.Context, localPaths []string) []Result {
	return s.fanOut(localPaths, func(p string) Result { return s.Offload(ctx, p) })
}

// DeleteAll runs Delete for every relative path. Results are in input order.
func (s *Syncer) DeleteAll(ctx context.Context, relativePaths []string) []Result {
	return s.fanOut(relativePaths, func(p string) Result { return s.Delete(ctx, p) })
}

func (s *Syncer) fanOut(items []string, fn func(string) Result) []Result {
	results := make([]Result, len(items))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(item)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
