package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/mediaoffload/internal/media"
)

func newTestRewriter() *SubstringRewriter {
	return NewSubstringRewriter("https://x.test/up", "https://cdn.test")
}

func TestRewriteURL(t *testing.T) {
	r := newTestRewriter()

	assert.Equal(t, "https://cdn.test/2024/a.jpg", r.RewriteURL("https://x.test/up/2024/a.jpg"))
	assert.Equal(t, "https://other.test/a.jpg", r.RewriteURL("https://other.test/a.jpg"))
	assert.Equal(t, "", r.RewriteURL(""))
}

func TestRewriteURL_TrailingSlashes(t *testing.T) {
	r := NewSubstringRewriter("https://x.test/up/", "https://cdn.test/")
	assert.Equal(t, "https://cdn.test/a.jpg", r.RewriteURL("https://x.test/up/a.jpg"))
}

func TestEmptyLocalBaseIsNoop(t *testing.T) {
	r := NewSubstringRewriter("", "https://cdn.test")
	assert.Equal(t, "abc", r.RewriteHTML("abc"))
}

func TestRewriteSourceSet(t *testing.T) {
	r := newTestRewriter()
	in := []media.SrcsetSource{
		{URL: "https://x.test/up/a-300x200.jpg", Descriptor: "w", Value: 300},
		{URL: "https://elsewhere.test/a.jpg", Descriptor: "x", Value: 2},
	}

	out := r.RewriteSourceSet(in)

	assert.Equal(t, []media.SrcsetSource{
		{URL: "https://cdn.test/a-300x200.jpg", Descriptor: "w", Value: 300},
		{URL: "https://elsewhere.test/a.jpg", Descriptor: "x", Value: 2},
	}, out)
	assert.Equal(t, "https://x.test/up/a-300x200.jpg", in[0].URL, "input not mutated")
	assert.Nil(t, r.RewriteSourceSet(nil))
}

func TestRewriteHTML(t *testing.T) {
	r := newTestRewriter()
	html := `<p>see https://x.test/up/x.png</p><!-- https://x.test/up/y.png --><img src="https://x.test/up/z.png">`

	assert.Equal(t,
		`<p>see https://cdn.test/x.png</p><!-- https://cdn.test/y.png --><img src="https://cdn.test/z.png">`,
		r.RewriteHTML(html))
}

func TestRewriteBlock(t *testing.T) {
	r := newTestRewriter()
	html := `<figure><img src="https://x.test/up/a.jpg"></figure>`

	for _, name := range RewritableBlocks {
		assert.Equal(t, `<figure><img src="https://cdn.test/a.jpg"></figure>`, r.RewriteBlock(html, name), name)
	}
	assert.Equal(t, html, r.RewriteBlock(html, "core/paragraph"))
	assert.Equal(t, html, r.RewriteBlock(html, ""))
}
