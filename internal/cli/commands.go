package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/media"
	"github.com/dmitrijs2005/mediaoffload/internal/objectstore"
	"github.com/dmitrijs2005/mediaoffload/internal/syncer"
)

var errUsage = errors.New("usage")

func usage(u string) error {
	return fmt.Errorf("%w: %s", errUsage, u)
}

func parseID(args []string, u string) (int64, error) {
	if len(args) == 0 {
		return 0, usage(u)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// parseDims parses "800x600".
func parseDims(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid dimensions %q", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w < 0 || h < 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %q", s)
	}
	return w, h, nil
}

// parseSize parses "name=file@WxH"; the dimensions are optional.
func parseSize(s string) (media.Size, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" || rest == "" {
		return media.Size{}, fmt.Errorf("invalid size %q, want name=file@WxH", s)
	}
	size := media.Size{Name: name, File: rest}
	if file, dims, ok := strings.Cut(rest, "@"); ok {
		w, h, err := parseDims(dims)
		if err != nil {
			return media.Size{}, err
		}
		size.File, size.Width, size.Height = file, w, h
	}
	if strings.Contains(size.File, "/") || size.File == "." || size.File == ".." {
		return media.Size{}, fmt.Errorf("size file %q must be a basename", size.File)
	}
	return size, nil
}

// climbsOut reports whether a relative path has a ".." segment.
func climbsOut(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func (a *App) localPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.offload.LocalBaseDir, filepath.FromSlash(p))
}

func (a *App) localURL(rel string) string {
	return a.offload.LocalBaseURL + "/" + strings.TrimLeft(rel, "/")
}

func (a *App) attachment(ctx context.Context, args []string, u string) (*media.Attachment, error) {
	id, err := parseID(args, u)
	if err != nil {
		return nil, err
	}
	att, err := a.repos.Media.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("attachment %d not found", id)
	}
	return att, err
}

func (a *App) Status(ctx context.Context, args []string) error {
	remote := "disabled (local-only)"
	if a.service.RemoteEnabled() {
		remote = "enabled"
	}
	fmt.Fprintf(a.out, "remote sync:      %s\n", remote)
	fmt.Fprintf(a.out, "bucket:           %s\n", a.offload.Bucket)
	fmt.Fprintf(a.out, "region:           %s\n", a.offload.Region)
	fmt.Fprintf(a.out, "remote base URL:  %s\n", a.offload.RemoteBaseURL)
	fmt.Fprintf(a.out, "local base URL:   %s\n", a.offload.LocalBaseURL)
	fmt.Fprintf(a.out, "local base dir:   %s\n", a.offload.LocalBaseDir)
	fmt.Fprintf(a.out, "key file:         %s\n", a.keys.Path())
	fmt.Fprintf(a.out, "image editing:    %t\n", a.service.ImageEditingSupported())
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	items, err := a.repos.Media.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Library is empty")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%d\t%s\t%dx%d\t%d sizes\n", it.ID, it.File, it.Width, it.Height, len(it.Sizes))
	}
	return nil
}

func (a *App) Register(ctx context.Context, args []string) error {
	const u = "register <file> [WxH] [name=file@WxH ...]"
	if len(args) == 0 {
		return usage(u)
	}

	att := &media.Attachment{File: strings.TrimLeft(filepath.ToSlash(args[0]), "/")}
	if att.File == "" || climbsOut(att.File) {
		return fmt.Errorf("file %q must be a path inside the uploads directory", args[0])
	}
	att.MimeType = objectstore.DetectContentType(a.localPath(att.File))

	for _, arg := range args[1:] {
		if !strings.Contains(arg, "=") {
			w, h, err := parseDims(arg)
			if err != nil {
				return err
			}
			att.Width, att.Height = w, h
			continue
		}
		s, err := parseSize(arg)
		if err != nil {
			return err
		}
		s.MimeType = att.MimeType
		att.Sizes = append(att.Sizes, s)
	}

	id, err := a.repos.Media.Save(ctx, att)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered attachment %d (%s)\n", id, att.File)
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("upload <path>")
	}
	p := a.localPath(args[0])
	a.service.OnFileUploaded(ctx, media.Upload{File: p, URL: a.localURL(args[0])})
	fmt.Fprintf(a.out, "Processed upload of %s\n", p)
	return nil
}

func (a *App) Generate(ctx context.Context, args []string) error {
	att, err := a.attachment(ctx, args, "generate <id>")
	if err != nil {
		return err
	}
	a.service.OnMetadataGenerated(ctx, att.ID, att)
	fmt.Fprintf(a.out, "Processed %d variant(s) of attachment %d\n", len(att.VariantPaths()), att.ID)
	return nil
}

func (a *App) URL(ctx context.Context, args []string) error {
	att, err := a.attachment(ctx, args, "url <id>")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.service.PublicURL(ctx, att.ID, a.localURL(att.File)))
	return nil
}

// Resolve looks the URL up in the library first and falls back to a plain
// base URL substitution for files the library does not know.
func (a *App) Resolve(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("resolve <url>")
	}
	u := a.service.AttachmentURL(ctx, args[0])
	if u == args[0] {
		u = a.service.ImageSrc(media.ImageSource{URL: args[0]}).URL
	}
	fmt.Fprintln(a.out, u)
	return nil
}

func (a *App) Downsize(ctx context.Context, args []string) error {
	const u = "downsize <id> <size>"
	if len(args) < 2 {
		return usage(u)
	}
	id, err := parseID(args, u)
	if err != nil {
		return err
	}
	src, ok := a.service.ImageDownsize(ctx, id, args[1])
	if !ok {
		fmt.Fprintln(a.out, "No remote variant, the host keeps its own handling")
		return nil
	}
	fmt.Fprintf(a.out, "%s %dx%d\n", src.URL, src.Width, src.Height)
	return nil
}

func (a *App) Srcset(ctx context.Context, args []string) error {
	att, err := a.attachment(ctx, args, "srcset <id>")
	if err != nil {
		return err
	}

	sources := make([]media.SrcsetSource, 0, len(att.Sizes)+1)
	for _, s := range att.Sizes {
		sources = append(sources, media.SrcsetSource{URL: a.localURL(att.SizePath(s)), Descriptor: "w", Value: s.Width})
	}
	sources = append(sources, media.SrcsetSource{URL: a.localURL(att.File), Descriptor: "w", Value: att.Width})

	for _, s := range a.service.Srcset(sources) {
		fmt.Fprintf(a.out, "%s %d%s\n", s.URL, s.Value, s.Descriptor)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	att, err := a.attachment(ctx, args, "delete <id>")
	if err != nil {
		return err
	}

	for _, r := range a.service.OnAssetDeleted(ctx, att.ID) {
		line := fmt.Sprintf("%s\t%s\tlocal removed: %t", r.Path, r.Status, r.LocalRemoved)
		if r.Status == syncer.StatusFailed {
			line += "\t" + objectstore.ErrorMessage(r.Err)
		}
		fmt.Fprintln(a.out, line)
	}

	if err := a.repos.Media.Delete(ctx, att.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted attachment %d\n", att.ID)
	return nil
}

func (a *App) Render(ctx context.Context, args []string) error {
	var block, file string
	for _, arg := range args {
		if name, ok := strings.CutPrefix(arg, "block="); ok {
			block = name
			continue
		}
		file = arg
	}

	var html string
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		html = string(b)
	} else {
		var err error
		if html, err = GetMultiline(a.reader, "Paste HTML", a.out); err != nil {
			return err
		}
	}

	if block != "" {
		fmt.Fprintln(a.out, a.service.RenderBlock(html, block))
	} else {
		fmt.Fprintln(a.out, a.service.RenderContent(html))
	}
	return nil
}

func (a *App) Settings(ctx context.Context, args []string) error {
	current, err := a.settings.Load(ctx)
	if err != nil {
		return err
	}

	input := map[string]string{}
	for _, key := range common.SettingKeys {
		if common.IsSensitiveSetting(key) {
			secret, err := GetSecret(fmt.Sprintf("%s [%s]", key, mask(current[key])), a.out)
			if err != nil {
				return err
			}
			if len(secret) > 0 {
				input[key] = string(secret)
			}
			common.WipeByteArray(secret)
			continue
		}

		v, err := GetSimpleText(a.reader, fmt.Sprintf("%s [%s]", key, current[key]), a.out)
		if err != nil {
			return err
		}
		if v != "" {
			input[key] = v
		}
	}

	if len(input) == 0 {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}
	if err := a.settings.Save(ctx, input); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Settings saved, restart to apply them")
	return nil
}

func (a *App) Encrypt(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("encrypt <text>")
	}
	enc, err := a.keys.Encrypt(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, enc)
	return nil
}

func (a *App) Stats(ctx context.Context, args []string) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%gs", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}

	if len(lines) == 0 {
		fmt.Fprintln(a.out, "No activity yet")
		return nil
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(a.out, l)
	}
	return nil
}

func mask(v string) string {
	if v == "" {
		return "unset"
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
