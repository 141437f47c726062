// Package offload exposes one handler per media-library lifecycle event.
// The host calls these in-process; none of them fail because of object
// store trouble.
package offload

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/config"
	"github.com/dmitrijs2005/mediaoffload/internal/filex"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
	"github.com/dmitrijs2005/mediaoffload/internal/media"
	"github.com/dmitrijs2005/mediaoffload/internal/paths"
	"github.com/dmitrijs2005/mediaoffload/internal/rewrite"
	"github.com/dmitrijs2005/mediaoffload/internal/syncer"
)

const (
	EventFileUploaded      = "file_uploaded"
	EventMetadataGenerated = "metadata_generated"
	EventAssetDeleted      = "asset_deleted"
)

type Service struct {
	cfg      config.Offload
	library  media.Repository
	syncer   *syncer.Syncer
	paths    *paths.Translator
	rewriter rewrite.Rewriter
	logger   logging.Logger
}

func NewService(
	cfg config.Offload,
	library media.Repository,
	s *syncer.Syncer,
	translator *paths.Translator,
	rewriter rewrite.Rewriter,
	logger logging.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		library:  library,
		syncer:   s,
		paths:    translator,
		rewriter: rewriter,
		logger:   logger,
	}
}

// RemoteEnabled reports whether files are mirrored to the object store.
func (s *Service) RemoteEnabled() bool {
	return s.syncer.Enabled()
}

func (s *Service) begin(ctx context.Context, event string, args ...any) (context.Context, logging.Logger) {
	l := s.logger.With(append([]any{"event", event, "event_id", uuid.NewString()}, args...)...)
	return logging.WithLogger(ctx, l), l
}

// OnFileUploaded mirrors a freshly uploaded file and returns the upload
// unchanged. The local copy is kept so that variants can still be generated.
func (s *Service) OnFileUploaded(ctx context.Context, up media.Upload) media.Upload {
	if up.File == "" {
		return up
	}
	ctx, _ = s.begin(ctx, EventFileUploaded, "path", up.File)
	s.syncer.Upload(ctx, up.File)
	return up
}

// OnMetadataGenerated offloads the main file, the unscaled original and
// every generated size of an attachment. Files that do not exist locally are
// logged and skipped. A local copy is removed only once its upload succeeded;
// a failed upload leaves the file in place. The metadata is returned unchanged.
func (s *Service) OnMetadataGenerated(ctx context.Context, id int64, meta *media.Attachment) *media.Attachment {
	if meta == nil {
		return nil
	}
	ctx, log := s.begin(ctx, EventMetadataGenerated, "attachment_id", id)

	a := *meta
	if a.File == "" {
		stored, err := s.library.Get(ctx, id)
		if err != nil {
			log.Warn(ctx, "attachment has no main file, nothing to offload", "error", err)
			return meta
		}
		a.File = stored.File
	}

	var local []string
	for _, rel := range a.VariantPaths() {
		p := s.paths.LocalPath(rel)
		if !filex.Exists(p) {
			if rel == a.ScaledOriginal() {
				continue
			}
			log.Warn(ctx, "file not found for upload", "path", p)
			continue
		}
		local = append(local, p)
	}

	results := s.syncer.OffloadAll(ctx, local)
	log.Info(ctx, "metadata offload finished", summarize(results)...)
	return meta
}

// PublicURL returns the remote URL of an attachment's main file, or
// original when remote sync is off or the attachment is unknown.
func (s *Service) PublicURL(ctx context.Context, id int64, original string) string {
	if !s.RemoteEnabled() {
		return original
	}
	a, err := s.library.Get(ctx, id)
	if err != nil || a.File == "" {
		return original
	}
	return s.paths.PublicURL(a.File)
}

// AttachmentURL resolves a local attachment URL to the attachment and
// returns its remote URL. Unknown URLs are returned unchanged.
func (s *Service) AttachmentURL(ctx context.Context, localURL string) string {
	if !s.RemoteEnabled() {
		return localURL
	}
	rel, ok := strings.CutPrefix(localURL, s.cfg.LocalBaseURL+"/")
	if !ok || s.cfg.LocalBaseURL == "" {
		return localURL
	}
	a, err := s.library.FindByFile(ctx, rel)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "attachment lookup failed", "url", localURL, "error", err)
		}
		return localURL
	}
	return s.paths.PublicURL(a.File)
}

// ImageDownsize answers a request for a named size of an attachment with
// remote URLs. "full" means the main file. The boolean is false when the
// host should fall back to its own handling.
func (s *Service) ImageDownsize(ctx context.Context, id int64, size string) (media.ImageSource, bool) {
	if !s.RemoteEnabled() {
		return media.ImageSource{}, false
	}
	a, err := s.library.Get(ctx, id)
	if err != nil {
		return media.ImageSource{}, false
	}

	if size == media.SizeFull {
		return media.ImageSource{
			URL:          s.paths.PublicURL(a.File),
			Width:        a.Width,
			Height:       a.Height,
			Intermediate: true,
		}, true
	}

	v, ok := a.SizeByName(size)
	if !ok || v.File == "" {
		return media.ImageSource{}, false
	}
	return media.ImageSource{
		URL:          s.paths.PublicURL(a.SizePath(v)),
		Width:        v.Width,
		Height:       v.Height,
		Intermediate: true,
	}, true
}

// ImageSrc rewrites the URL of an image source computed by the host.
func (s *Service) ImageSrc(src media.ImageSource) media.ImageSource {
	if s.RemoteEnabled() && src.URL != "" {
		src.URL = s.rewriter.RewriteURL(src.URL)
	}
	return src
}

// Srcset rewrites a responsive source list into a new slice.
func (s *Service) Srcset(sources []media.SrcsetSource) []media.SrcsetSource {
	if !s.RemoteEnabled() {
		return sources
	}
	return s.rewriter.RewriteSourceSet(sources)
}

// OnAssetDeleted removes every variant of an attachment from the object
// store and from disk. It reads the attachment but does not delete the
// library row; that belongs to the caller.
func (s *Service) OnAssetDeleted(ctx context.Context, id int64) []syncer.Result {
	ctx, log := s.begin(ctx, EventAssetDeleted, "attachment_id", id)

	if !s.RemoteEnabled() {
		log.Info(ctx, "remote sync disabled, skipping delete")
		return nil
	}

	a, err := s.library.Get(ctx, id)
	if err != nil || a.File == "" {
		log.Info(ctx, "no metadata for attachment, nothing to delete", "error", err)
		return nil
	}

	results := s.syncer.DeleteAll(ctx, a.VariantPaths())
	log.Info(ctx, "asset delete finished", summarize(results)...)
	return results
}

// RenderContent rewrites every local media URL in rendered content.
func (s *Service) RenderContent(html string) string {
	if !s.RemoteEnabled() {
		return html
	}
	return s.rewriter.RewriteHTML(html)
}

// RenderBlock rewrites media URLs inside image, gallery and cover blocks.
func (s *Service) RenderBlock(html, blockName string) string {
	if !s.RemoteEnabled() {
		return html
	}
	return s.rewriter.RewriteBlock(html, blockName)
}

// ImageEditingSupported is false while originals live only in the object
// store.
func (s *Service) ImageEditingSupported() bool {
	return !s.RemoteEnabled()
}

func summarize(results []syncer.Result) []any {
	counts := map[syncer.Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	return []any{
		"files", len(results),
		"ok", counts[syncer.StatusOK],
		"failed", counts[syncer.StatusFailed],
		"skipped", counts[syncer.StatusSkipped] + counts[syncer.StatusOutOfScope] + counts[syncer.StatusMissing],
	}
}
