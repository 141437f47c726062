// Package media models the media-library entries the offloader reacts to
// and persists them in the library database.
package media

import (
	"path"
	"strings"
)

// SizeFull names the main file in size lookups.
const SizeFull = "full"

// Attachment is one media-library entry: a main file plus the resized
// variants generated for it. File is relative to the uploads directory.
type Attachment struct {
	ID       int64
	File     string
	Width    int
	Height   int
	MimeType string
	Sizes    []Size
}

// Size is a generated variant. File is a basename in the directory of the
// attachment's main file.
type Size struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type,omitempty"`
}

// Dir returns the directory of the main file relative to the uploads root,
// or "" for files at the root.
func (a *Attachment) Dir() string {
	d := path.Dir(a.File)
	if d == "." {
		return ""
	}
	return d
}

// ScaledOriginal returns the relative path of the unscaled original kept
// next to a "-scaled" main file, or "" when the main file was not scaled.
func (a *Attachment) ScaledOriginal() string {
	ext := path.Ext(a.File)
	stem := strings.TrimSuffix(a.File, ext)
	if !strings.HasSuffix(stem, "-scaled") {
		return ""
	}
	return strings.TrimSuffix(stem, "-scaled") + ext
}

// SizePath returns the relative path of a variant.
func (a *Attachment) SizePath(s Size) string {
	return path.Join(a.Dir(), s.File)
}

// VariantPaths lists every relative path belonging to the attachment: the
// main file, the unscaled original if any, then each size. Duplicates are
// dropped while keeping the first occurrence.
func (a *Attachment) VariantPaths() []string {
	if a.File == "" {
		return nil
	}

	out := make([]string, 0, len(a.Sizes)+2)
	seen := make(map[string]struct{}, cap(out))
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	add(a.File)
	add(a.ScaledOriginal())
	for _, s := range a.Sizes {
		if s.File != "" {
			add(a.SizePath(s))
		}
	}
	return out
}

// SizeByName finds a variant by its registered name.
func (a *Attachment) SizeByName(name string) (Size, bool) {
	for _, s := range a.Sizes {
		if s.Name == name {
			return s, true
		}
	}
	return Size{}, false
}

// Upload describes a freshly uploaded file as reported by the library.
type Upload struct {
	File string
	URL  string
	Type string
}

// SrcsetSource is one entry of a responsive image source list.
type SrcsetSource struct {
	URL        string
	Descriptor string
	Value      int
}

// ImageSource is the answer to an image-downsize request.
type ImageSource struct {
	URL          string
	Width        int
	Height       int
	Intermediate bool
}
