package offload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/config"
	"github.com/dmitrijs2005/mediaoffload/internal/filex"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
	"github.com/dmitrijs2005/mediaoffload/internal/media"
	"github.com/dmitrijs2005/mediaoffload/internal/paths"
	"github.com/dmitrijs2005/mediaoffload/internal/rewrite"
	"github.com/dmitrijs2005/mediaoffload/internal/syncer"
)

type memLibrary struct {
	items map[int64]*media.Attachment
}

func (m *memLibrary) Get(_ context.Context, id int64) (*media.Attachment, error) {
	if a, ok := m.items[id]; ok {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memLibrary) FindByFile(_ context.Context, file string) (*media.Attachment, error) {
	for _, a := range m.items {
		if a.File == file {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memLibrary) Save(_ context.Context, a *media.Attachment) (int64, error) {
	m.items[a.ID] = a
	return a.ID, nil
}

func (m *memLibrary) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memLibrary) List(context.Context) ([]*media.Attachment, error) {
	var out []*media.Attachment
	for _, a := range m.items {
		out = append(out, a)
	}
	return out, nil
}

type memStore struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	failPut string
}

func (s *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	_, _ = io.Copy(io.Discard, body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	if key == s.failPut {
		return common.ErrProvider
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *memStore) Bucket() string { return "media" }

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

type fixture struct {
	base    string
	store   *memStore
	library *memLibrary
	logs    *bytes.Buffer
	svc     *Service
}

func newFixture(t *testing.T, remote bool) *fixture {
	t.Helper()
	base := t.TempDir()
	fx := &fixture{base: base, store: &memStore{}, library: &memLibrary{items: map[int64]*media.Attachment{}}, logs: &bytes.Buffer{}}

	cfg := config.Offload{
		LocalBaseURL:  "https://x.test/up",
		LocalBaseDir:  base,
		RemoteBaseURL: "https://cdn.test",
	}
	logger, err := logging.New(logging.FormatJSON, "debug", fx.logs)
	require.NoError(t, err)

	tr := paths.NewTranslator(base, cfg.RemoteBaseURL)
	opts := []syncer.Option{syncer.WithLogger(logger), syncer.WithConcurrency(2)}
	if remote {
		cfg.Bucket, cfg.AccessKey, cfg.SecretKey = "media", "a", "s"
		opts = append(opts, syncer.WithStore(fx.store))
	}
	sy := syncer.New(tr, filex.NewReclaimer(base), opts...)
	fx.svc = NewService(cfg, fx.library, sy, tr, rewrite.NewSubstringRewriter(cfg.LocalBaseURL, cfg.RemoteBaseURL), logger)
	return fx
}

func (fx *fixture) write(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(fx.base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	return p
}

func photo() *media.Attachment {
	return &media.Attachment{
		ID:       7,
		File:     "2024/05/photo-scaled.jpg",
		Width:    2560,
		Height:   1707,
		MimeType: "image/jpeg",
		Sizes: []media.Size{
			{Name: "thumbnail", File: "photo-150x150.jpg", Width: 150, Height: 150},
			{Name: "medium", File: "photo-300x200.jpg", Width: 300, Height: 200},
		},
	}
}

func TestOnFileUploaded(t *testing.T) {
	fx := newFixture(t, true)
	p := fx.write(t, "2024/05/photo.jpg")

	up := media.Upload{File: p, URL: "https://x.test/up/2024/05/photo.jpg", Type: "image/jpeg"}
	assert.Equal(t, up, fx.svc.OnFileUploaded(context.Background(), up))
	assert.Equal(t, []string{"2024/05/photo.jpg"}, fx.store.puts)
	assert.FileExists(t, p)

	assert.Equal(t, media.Upload{}, fx.svc.OnFileUploaded(context.Background(), media.Upload{}))
}

func TestOnFileUploaded_EventLogged(t *testing.T) {
	fx := newFixture(t, true)
	p := fx.write(t, "a.jpg")

	fx.svc.OnFileUploaded(context.Background(), media.Upload{File: p})

	var line map[string]any
	first, _, _ := bytes.Cut(fx.logs.Bytes(), []byte("\n"))
	require.NoError(t, json.Unmarshal(first, &line))
	assert.Equal(t, EventFileUploaded, line["event"])
	assert.NotEmpty(t, line["event_id"])
	assert.Equal(t, "a.jpg", line["key"])
}

func TestOnMetadataGenerated(t *testing.T) {
	fx := newFixture(t, true)
	a := photo()
	fx.write(t, "2024/05/photo-scaled.jpg")
	fx.write(t, "2024/05/photo.jpg")
	fx.write(t, "2024/05/photo-150x150.jpg")
	// medium size is missing on disk

	got := fx.svc.OnMetadataGenerated(context.Background(), a.ID, a)

	assert.Same(t, a, got)
	assert.Equal(t, []string{
		"2024/05/photo-150x150.jpg",
		"2024/05/photo-scaled.jpg",
		"2024/05/photo.jpg",
	}, sorted(fx.store.puts))
	assert.NoDirExists(t, filepath.Join(fx.base, "2024"), "emptied directories are reclaimed")
	assert.Contains(t, fx.logs.String(), "file not found for upload")
}

func TestOnMetadataGenerated_FailedUploadKeepsLocalCopy(t *testing.T) {
	fx := newFixture(t, true)
	fx.store.failPut = "2024/05/photo-150x150.jpg"
	a := photo()
	mainFile := fx.write(t, "2024/05/photo-scaled.jpg")
	thumb := fx.write(t, "2024/05/photo-150x150.jpg")
	medium := fx.write(t, "2024/05/photo-300x200.jpg")

	fx.svc.OnMetadataGenerated(context.Background(), a.ID, a)

	assert.Len(t, fx.store.puts, 3)
	assert.FileExists(t, thumb)
	assert.NoFileExists(t, mainFile)
	assert.NoFileExists(t, medium)
	assert.DirExists(t, filepath.Join(fx.base, "2024", "05"))
}

func TestOnMetadataGenerated_LocalOnlyKeepsFiles(t *testing.T) {
	fx := newFixture(t, false)
	a := photo()
	p := fx.write(t, "2024/05/photo-scaled.jpg")

	fx.svc.OnMetadataGenerated(context.Background(), a.ID, a)

	assert.FileExists(t, p)
	assert.Empty(t, fx.store.puts)
	assert.Nil(t, fx.svc.OnMetadataGenerated(context.Background(), 1, nil))
}

func TestOnMetadataGenerated_MainFileFromLibrary(t *testing.T) {
	fx := newFixture(t, true)
	fx.library.items[3] = &media.Attachment{ID: 3, File: "doc.png"}
	fx.write(t, "doc.png")

	fx.svc.OnMetadataGenerated(context.Background(), 3, &media.Attachment{})
	assert.Equal(t, []string{"doc.png"}, fx.store.puts)
}

func TestPublicURLAndAttachmentURL(t *testing.T) {
	fx := newFixture(t, true)
	fx.library.items[7] = photo()
	ctx := context.Background()

	assert.Equal(t, "https://cdn.test/2024/05/photo-scaled.jpg", fx.svc.PublicURL(ctx, 7, "orig"))
	assert.Equal(t, "orig", fx.svc.PublicURL(ctx, 99, "orig"))

	assert.Equal(t, "https://cdn.test/2024/05/photo-scaled.jpg",
		fx.svc.AttachmentURL(ctx, "https://x.test/up/2024/05/photo-scaled.jpg"))
	assert.Equal(t, "https://x.test/up/unknown.jpg", fx.svc.AttachmentURL(ctx, "https://x.test/up/unknown.jpg"))
	assert.Equal(t, "https://other.test/a.jpg", fx.svc.AttachmentURL(ctx, "https://other.test/a.jpg"))
}

func TestURLsUntouchedWhenLocalOnly(t *testing.T) {
	fx := newFixture(t, false)
	fx.library.items[7] = photo()
	ctx := context.Background()

	assert.Equal(t, "orig", fx.svc.PublicURL(ctx, 7, "orig"))
	assert.Equal(t, "https://x.test/up/a.jpg", fx.svc.AttachmentURL(ctx, "https://x.test/up/a.jpg"))
	assert.Equal(t, "https://x.test/up/a.jpg", fx.svc.RenderContent("https://x.test/up/a.jpg"))
	assert.Equal(t, "https://x.test/up/a.jpg", fx.svc.ImageSrc(media.ImageSource{URL: "https://x.test/up/a.jpg"}).URL)
	_, ok := fx.svc.ImageDownsize(ctx, 7, media.SizeFull)
	assert.False(t, ok)
	assert.True(t, fx.svc.ImageEditingSupported())
}

func TestImageDownsize(t *testing.T) {
	fx := newFixture(t, true)
	fx.library.items[7] = photo()
	ctx := context.Background()

	full, ok := fx.svc.ImageDownsize(ctx, 7, media.SizeFull)
	require.True(t, ok)
	assert.Equal(t, media.ImageSource{URL: "https://cdn.test/2024/05/photo-scaled.jpg", Width: 2560, Height: 1707, Intermediate: true}, full)

	thumb, ok := fx.svc.ImageDownsize(ctx, 7, "thumbnail")
	require.True(t, ok)
	assert.Equal(t, media.ImageSource{URL: "https://cdn.test/2024/05/photo-150x150.jpg", Width: 150, Height: 150, Intermediate: true}, thumb)

	_, ok = fx.svc.ImageDownsize(ctx, 7, "large")
	assert.False(t, ok)
	_, ok = fx.svc.ImageDownsize(ctx, 8, media.SizeFull)
	assert.False(t, ok)
}

func TestImageSrcAndSrcset(t *testing.T) {
	fx := newFixture(t, true)

	src := fx.svc.ImageSrc(media.ImageSource{URL: "https://x.test/up/a.jpg", Width: 10})
	assert.Equal(t, media.ImageSource{URL: "https://cdn.test/a.jpg", Width: 10}, src)

	in := []media.SrcsetSource{{URL: "https://x.test/up/a-300.jpg", Descriptor: "w", Value: 300}}
	out := fx.svc.Srcset(in)
	assert.Equal(t, "https://cdn.test/a-300.jpg", out[0].URL)
	assert.Equal(t, "https://x.test/up/a-300.jpg", in[0].URL)
}

func TestOnAssetDeleted(t *testing.T) {
	fx := newFixture(t, true)
	a := photo()
	fx.library.items[a.ID] = a
	fx.write(t, "2024/05/photo-scaled.jpg")
	fx.write(t, "2024/05/photo-150x150.jpg")
	fx.write(t, "2024/keep.txt")

	results := fx.svc.OnAssetDeleted(context.Background(), a.ID)

	require.Len(t, results, 4)
	assert.Equal(t, sorted(a.VariantPaths()), sorted(fx.store.deletes))
	assert.NoDirExists(t, filepath.Join(fx.base, "2024", "05"))
	assert.FileExists(t, filepath.Join(fx.base, "2024", "keep.txt"))
	_, err := fx.library.Get(context.Background(), a.ID)
	assert.NoError(t, err, "library row is left to the caller")

	assert.Nil(t, fx.svc.OnAssetDeleted(context.Background(), 404))
}

func TestOnAssetDeleted_LocalOnly(t *testing.T) {
	fx := newFixture(t, false)
	fx.library.items[7] = photo()
	p := fx.write(t, "2024/05/photo-scaled.jpg")

	assert.Nil(t, fx.svc.OnAssetDeleted(context.Background(), 7))
	assert.FileExists(t, p)
}

func TestRender(t *testing.T) {
	fx := newFixture(t, true)
	html := `<img src="https://x.test/up/a.jpg">`

	assert.Equal(t, `<img src="https://cdn.test/a.jpg">`, fx.svc.RenderContent(html))
	assert.Equal(t, `<img src="https://cdn.test/a.jpg">`, fx.svc.RenderBlock(html, "core/gallery"))
	assert.Equal(t, html, fx.svc.RenderBlock(html, "core/paragraph"))
	assert.False(t, fx.svc.ImageEditingSupported())
}
