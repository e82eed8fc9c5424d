// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package markup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikara/wikara/internal/platform/apperr"
)

// stubResolver serves a fixed topic set.
type stubResolver struct {
	topics      map[string]string   // normalized -> display name
	attachments map[string][]string // normalized topic -> filenames
}

func (resolver *stubResolver) TopicExists(_ context.Context, normalizedName string) (bool, error) {
	_, ok := resolver.topics[normalizedName]
	return ok, nil
}

func (resolver *stubResolver) SubtopicRefs(_ context.Context, normalizedPrefix string) ([]TopicRef, error) {
	var refs []TopicRef
	for normalized, display := range resolver.topics {
		if len(normalized) > len(normalizedPrefix) && normalized[:len(normalizedPrefix)] == normalizedPrefix {
			refs = append(refs, TopicRef{Name: display, NormalizedName: normalized})
		}
	}
	// Deterministic order for assertions.
	for i := range refs {
		for j := i + 1; j < len(refs); j++ {
			if refs[j].NormalizedName < refs[i].NormalizedName {
				refs[i], refs[j] = refs[j], refs[i]
			}
		}
	}
	return refs, nil
}

func (resolver *stubResolver) AttachmentNames(_ context.Context, normalizedName string) ([]string, error) {
	return resolver.attachments[normalizedName], nil
}

func newTestRenderer() *Renderer {
	return NewRenderer(&stubResolver{
		topics: map[string]string{
			"home":           "Home",
			"projects":       "Projects",
			"projects.alpha": "Projects.Alpha",
			"projects.beta":  "Projects.Beta",
		},
		attachments: map[string][]string{
			"projects": {"roadmap.pdf", "team.png"},
		},
	}, "/wiki/topic/")
}

func TestRenderWikiLinks(t *testing.T) {
	renderer := newTestRenderer()

	t.Run("existing topic renders plain link", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "See [[Home]].", "Projects")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `<a href="/wiki/topic/Home">Home</a>`)
		assert.Equal(t, []string{"home"}, result.Names)
	})

	t.Run("missing topic renders nonexistent link", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "See [[Roadmap 2027]].", "Projects")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `class="nonexistent"`)
		assert.Equal(t, []string{"roadmap 2027"}, result.Names)
	})

	t.Run("label overrides link text", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "[[Home|the front page]]", "Projects")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `>the front page</a>`)
	})

	t.Run("duplicate targets are recorded once in first-seen order", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "[[Beta]] [[Home]] [[beta]] [[BETA]]", "Projects")
		require.NoError(t, err)
		assert.Equal(t, []string{"beta", "home"}, result.Names)
		assert.Equal(t, "Beta", result.Casing["beta"], "first-seen casing wins")
	})

	t.Run("invalid target fails the whole render", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "ok text [[Bad/Name]] more text", "Projects")
		require.Error(t, err)
		assert.Nil(t, result)

		var appError *apperr.AppError
		require.ErrorAs(t, err, &appError)
		assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	})
}

func TestRenderBlocks(t *testing.T) {
	renderer := newTestRenderer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "heading", raw: "== Section ==", want: "<h2>Section</h2>"},
		{name: "paragraph", raw: "hello world", want: "<p>hello world</p>"},
		{name: "bold", raw: "a **b** c", want: "a <strong>b</strong> c"},
		{name: "italic", raw: "a //b// c", want: "a <em>b</em> c"},
		{name: "unordered list", raw: "* one\n* two", want: "<ul>\n<li>one</li>\n<li>two</li>\n</ul>"},
		{name: "ordered list", raw: "# one\n# two", want: "<ol>\n<li>one</li>\n<li>two</li>\n</ol>"},
		{name: "inline nowiki is not parsed", raw: "{{{[[NotALink]]}}}", want: "<code>[[NotALink]]</code>"},
		{name: "text is escaped", raw: "a < b & c", want: "a &lt; b &amp; c"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := renderer.Render(context.Background(), test.raw, "Projects")
			require.NoError(t, err)
			assert.Contains(t, result.HTML, test.want)
		})
	}
}

func TestRenderNowikiBlock(t *testing.T) {
	renderer := newTestRenderer()

	result, err := renderer.Render(context.Background(), "{{{\n[[NotALink]]\n**verbatim**\n}}}", "Projects")
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "<pre>[[NotALink]]\n**verbatim**</pre>")
	assert.Empty(t, result.Names)
}

func TestMacros(t *testing.T) {
	renderer := newTestRenderer()

	t.Run("subtopics lists children and records extra references", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<subtopics Projects>>", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `>Projects.Alpha</a>`)
		assert.Contains(t, result.HTML, `>Projects.Beta</a>`)
		assert.Equal(t, []string{"projects.alpha", "projects.beta"}, result.ExtraNames)
		assert.Empty(t, result.Names, "macro references are not textual links")
	})

	t.Run("subtopics defaults to the current topic", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<subtopics>>", "Projects")
		require.NoError(t, err)
		assert.Equal(t, []string{"projects.alpha", "projects.beta"}, result.ExtraNames)
	})

	t.Run("attachlist lists files without adding references", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<attachlist Projects>>", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, "roadmap.pdf")
		assert.Contains(t, result.HTML, "/wiki/topic/Projects/attachments/team.png")
		assert.Empty(t, result.ExtraNames)
	})

	t.Run("anchor emits a target", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<anchor section-2>>", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `<a id="section-2"></a>`)
	})

	t.Run("mailto obscures the address", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<mailto team@wikara.app>>", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `href="mailto:team@wikara.app"`)
		assert.Contains(t, result.HTML, ">team at wikara.app</a>")
	})

	t.Run("attachment links a single file on the current topic", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<attachment roadmap.pdf>>", "Projects")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `<a href="/wiki/topic/Projects/attachments/roadmap.pdf">roadmap.pdf</a>`)
		assert.Empty(t, result.ExtraNames)
	})

	t.Run("attachment escapes the filename in the link", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<attachment q3 report.pdf>>", "Projects")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, `/wiki/topic/Projects/attachments/q3%20report.pdf`)
		assert.Contains(t, result.HTML, ">q3 report.pdf</a>")
	})

	t.Run("gettext passes the message through escaped", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "<<gettext Table of Contents>>", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, "Table of Contents")
		assert.NotContains(t, result.HTML, "<<gettext")
	})

	t.Run("unknown macro expands to nothing", func(t *testing.T) {
		result, err := renderer.Render(context.Background(), "before <<mystery arg>> after", "Home")
		require.NoError(t, err)
		assert.Contains(t, result.HTML, "before  after")
	})
}

type shoutingPostProcessor struct{}

func (shoutingPostProcessor) Process(rendered string) string {
	return rendered + "<!-- processed -->"
}

func TestPostProcessorRunsLast(t *testing.T) {
	renderer := NewRenderer(&stubResolver{}, "/wiki/topic/", WithPostProcessor(shoutingPostProcessor{}))

	result, err := renderer.Render(context.Background(), "hello", "Home")
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "<!-- processed -->")
}
