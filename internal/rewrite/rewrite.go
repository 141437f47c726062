// Package rewrite swaps local media URLs for their remote equivalents in
// URLs, responsive source lists and rendered content.
package rewrite

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/mediaoffload/internal/media"
)

// Rewriter replaces local media URLs with remote ones.
type Rewriter interface {
	RewriteURL(url string) string
	RewriteSourceSet(sources []media.SrcsetSource) []media.SrcsetSource
	RewriteHTML(html string) string
	RewriteBlock(html, blockName string) string
}

// RewritableBlocks lists the content blocks whose markup carries media URLs.
var RewritableBlocks = []string{"core/image", "core/gallery", "core/cover"}

// SubstringRewriter does a blind textual substitution of the local base URL.
// It does not parse HTML: URLs in attributes, text and comments are all
// rewritten alike.
type SubstringRewriter struct {
	from string
	to   string
}

func NewSubstringRewriter(localBaseURL, remoteBaseURL string) *SubstringRewriter {
	return &SubstringRewriter{
		from: strings.TrimRight(localBaseURL, "/"),
		to:   strings.TrimRight(remoteBaseURL, "/"),
	}
}

func (r *SubstringRewriter) replace(s string) string {
	if r.from == "" || r.from == r.to {
		return s
	}
	return strings.ReplaceAll(s, r.from, r.to)
}

func (r *SubstringRewriter) RewriteURL(url string) string {
	return r.replace(url)
}

// RewriteSourceSet returns a new slice; sources is left untouched.
func (r *SubstringRewriter) RewriteSourceSet(sources []media.SrcsetSource) []media.SrcsetSource {
	if sources == nil {
		return nil
	}
	out := make([]media.SrcsetSource, len(sources))
	for i, s := range sources {
		s.URL = r.replace(s.URL)
		out[i] = s
	}
	return out
}

func (r *SubstringRewriter) RewriteHTML(html string) string {
	return r.replace(html)
}

// RewriteBlock rewrites only blocks listed in RewritableBlocks.
func (r *SubstringRewriter) RewriteBlock(html, blockName string) string {
	if !slices.Contains(RewritableBlocks, blockName) {
		return html
	}
	return r.replace(html)
}
