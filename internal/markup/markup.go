// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

/*
Package markup renders wiki topic content and discovers cross-topic references.

The dialect is creole-flavored: paragraphs, '=' headings, '*' and '#' list
items, **bold**, //italic//, {{{nowiki}}} spans and blocks, [[Topic]] /
[[Topic|label]] wiki links, and <<name arg>> extension macros.

# Reference Discovery

Rendering a document has a side channel: every wiki link and every macro that
programmatically pulls in topics contributes to a per-call [Result]. Discovery
state is call-scoped — a [Renderer] is safe for concurrent use with no
serialization between renders.

# Failure Mode

A discovered link target that is not a valid topic name aborts the entire
render. No partially rendered output is ever returned.
*/
package markup

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/wikara/wikara/internal/platform/apperr"
	"github.com/wikara/wikara/pkg/wikiname"
)

// TopicRef identifies a live topic by display name and lookup key.
type TopicRef struct {
	Name           string
	NormalizedName string
}

// Resolver supplies the renderer with lookups against the live topic set.
//
// Implementations must treat a missing topic as an empty result, not an
// error: rendering a link to a not-yet-existing topic is normal.
type Resolver interface {
	// TopicExists reports whether a live (non-deleted) topic exists under
	// the given normalized name.
	TopicExists(ctx context.Context, normalizedName string) (bool, error)

	// SubtopicRefs lists live topics whose normalized name starts with the
	// given hierarchy prefix, ordered by normalized name.
	SubtopicRefs(ctx context.Context, normalizedPrefix string) ([]TopicRef, error)

	// AttachmentNames lists the filenames attached to the topic with the
	// given normalized name. A missing topic yields an empty list.
	AttachmentNames(ctx context.Context, normalizedName string) ([]string, error)
}

// TextPostProcessor is an optional final pass over rendered HTML, e.g. a
// typographic prettifier. The zero configuration is the identity pass.
type TextPostProcessor interface {
	Process(rendered string) string
}

type identityPostProcessor struct{}

func (identityPostProcessor) Process(rendered string) string { return rendered }

// Result carries the rendered output plus the reference side channel of a
// single render call.
type Result struct {
	// HTML is the full rendered document.
	HTML string

	// Names holds the normalized names of all wiki-link targets, in first-seen
	// order with duplicates removed.
	Names []string

	// Casing maps each normalized name to the display casing of its first
	// occurrence. Nascent topics are created with this casing.
	Casing map[string]string

	// ExtraNames holds normalized names of live topics contributed by macros
	// (e.g. <<subtopics>>) rather than textual links.
	ExtraNames []string
}

// Renderer renders wiki markup. It holds only immutable configuration and is
// safe for concurrent use.
type Renderer struct {
	resolver Resolver
	baseURL  string
	post     TextPostProcessor
}

// Option customizes a [Renderer].
type Option func(*Renderer)

// WithPostProcessor installs a final-pass [TextPostProcessor].
func WithPostProcessor(post TextPostProcessor) Option {
	return func(renderer *Renderer) { renderer.post = post }
}

// NewRenderer constructs a [Renderer]. Topic links are emitted relative to
// baseURL (e.g. "/wiki/topic/").
func NewRenderer(resolver Resolver, baseURL string, options ...Option) *Renderer {
	renderer := &Renderer{
		resolver: resolver,
		baseURL:  baseURL,
		post:     identityPostProcessor{},
	}
	for _, option := range options {
		option(renderer)
	}
	return renderer
}

// Render renders raw markup for the named topic and returns the output plus
// the discovered reference set.
func (renderer *Renderer) Render(ctx context.Context, raw, currentTopicName string) (*Result, error) {
	pass := &renderPass{
		renderer: renderer,
		ctx:      ctx,
		current:  currentTopicName,
		result: &Result{
			Casing: make(map[string]string),
		},
		seen: make(map[string]bool),
	}

	body, err := pass.renderBlocks(raw)
	if err != nil {
		return nil, err
	}

	pass.result.HTML = renderer.post.Process(body)
	return pass.result, nil
}

// renderPass is the call-scoped discovery context of a single render. It is
// never shared between calls.
type renderPass struct {
	renderer *Renderer
	ctx      context.Context
	current  string
	result   *Result
	seen     map[string]bool
}

// discover records a wiki-link target, preserving first-seen order and casing.
// An invalid name fails the whole render.
func (pass *renderPass) discover(displayName string) error {
	if !wikiname.Valid(displayName) {
		return badName(displayName)
	}

	normalized := wikiname.Normalize(displayName)
	if pass.seen[normalized] {
		return nil
	}

	pass.seen[normalized] = true
	pass.result.Names = append(pass.result.Names, normalized)
	pass.result.Casing[normalized] = strings.TrimSpace(displayName)
	return nil
}

// discoverExtra records a macro-contributed live topic.
func (pass *renderPass) discoverExtra(ref TopicRef) {
	pass.result.ExtraNames = append(pass.result.ExtraNames, ref.NormalizedName)
}

// badName builds the hard rendering failure for an invalid link target.
func badName(name string) error {
	return apperr.ValidationError(
		fmt.Sprintf("%q is not a valid topic name: '/' and ':' are not allowed, use '.' for hierarchy", name),
	)
}

// # Block Rendering

// renderBlocks walks raw line by line, grouping lines into headings, lists,
// nowiki blocks, and paragraphs.
func (pass *renderPass) renderBlocks(raw string) (string, error) {
	var out strings.Builder

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var paragraph []string
	flushParagraph := func() error {
		if len(paragraph) == 0 {
			return nil
		}
		inner, err := pass.renderInline(strings.Join(paragraph, "\n"))
		if err != nil {
			return err
		}
		out.WriteString("<p>" + inner + "</p>\n")
		paragraph = paragraph[:0]
		return nil
	}

	var listItems []string
	var listTag string
	flushList := func() error {
		if len(listItems) == 0 {
			return nil
		}
		out.WriteString("<" + listTag + ">\n")
		for _, item := range listItems {
			inner, err := pass.renderInline(item)
			if err != nil {
				return err
			}
			out.WriteString("<li>" + inner + "</li>\n")
		}
		out.WriteString("</" + listTag + ">\n")
		listItems = listItems[:0]
		return nil
	}

	for index := 0; index < len(lines); index++ {
		line := lines[index]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			if err := flushParagraph(); err != nil {
				return "", err
			}
			if err := flushList(); err != nil {
				return "", err
			}

		case strings.HasPrefix(trimmed, "{{{") && trimmed == "{{{":
			// Block-level nowiki: verbatim until the closing fence.
			if err := flushParagraph(); err != nil {
				return "", err
			}
			if err := flushList(); err != nil {
				return "", err
			}
			var verbatim []string
			index++
			for ; index < len(lines) && strings.TrimSpace(lines[index]) != "}}}"; index++ {
				verbatim = append(verbatim, lines[index])
			}
			out.WriteString("<pre>" + html.EscapeString(strings.Join(verbatim, "\n")) + "</pre>\n")

		case strings.HasPrefix(trimmed, "="):
			if err := flushParagraph(); err != nil {
				return "", err
			}
			if err := flushList(); err != nil {
				return "", err
			}
			level := 0
			for level < 6 && level < len(trimmed) && trimmed[level] == '=' {
				level++
			}
			text := strings.TrimSpace(strings.Trim(trimmed, "= "))
			inner, err := pass.renderInline(text)
			if err != nil {
				return "", err
			}
			out.WriteString(fmt.Sprintf("<h%d>%s</h%d>\n", level, inner, level))

		case strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "# "):
			if err := flushParagraph(); err != nil {
				return "", err
			}
			tag := "ul"
			if trimmed[0] == '#' {
				tag = "ol"
			}
			if listTag != tag {
				if err := flushList(); err != nil {
					return "", err
				}
				listTag = tag
			}
			listItems = append(listItems, strings.TrimSpace(trimmed[2:]))

		default:
			if err := flushList(); err != nil {
				return "", err
			}
			paragraph = append(paragraph, line)
		}
	}

	if err := flushParagraph(); err != nil {
		return "", err
	}
	if err := flushList(); err != nil {
		return "", err
	}

	return out.String(), nil
}

// # Inline Rendering

// renderInline handles span-level constructs: nowiki, wiki links, macros,
// bold, and italics. All other text is HTML-escaped.
func (pass *renderPass) renderInline(text string) (string, error) {
	var out strings.Builder
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() > 0 {
			out.WriteString(html.EscapeString(plain.String()))
			plain.Reset()
		}
	}

	bold := false
	italic := false

	for index := 0; index < len(text); {
		switch {
		case strings.HasPrefix(text[index:], "{{{"):
			end := strings.Index(text[index+3:], "}}}")
			if end < 0 {
				plain.WriteString(text[index:])
				index = len(text)
				continue
			}
			flushPlain()
			out.WriteString("<code>" + html.EscapeString(text[index+3:index+3+end]) + "</code>")
			index += 3 + end + 3

		case strings.HasPrefix(text[index:], "[["):
			end := strings.Index(text[index+2:], "]]")
			if end < 0 {
				plain.WriteString(text[index:])
				index = len(text)
				continue
			}
			flushPlain()
			link, err := pass.renderWikiLink(text[index+2 : index+2+end])
			if err != nil {
				return "", err
			}
			out.WriteString(link)
			index += 2 + end + 2

		case strings.HasPrefix(text[index:], "<<"):
			end := strings.Index(text[index+2:], ">>")
			if end < 0 {
				plain.WriteString(text[index:])
				index = len(text)
				continue
			}
			flushPlain()
			expanded, err := pass.renderMacro(text[index+2 : index+2+end])
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
			index += 2 + end + 2

		case strings.HasPrefix(text[index:], "**"):
			flushPlain()
			if bold {
				out.WriteString("</strong>")
			} else {
				out.WriteString("<strong>")
			}
			bold = !bold
			index += 2

		case strings.HasPrefix(text[index:], "//"):
			flushPlain()
			if italic {
				out.WriteString("</em>")
			} else {
				out.WriteString("<em>")
			}
			italic = !italic
			index += 2

		default:
			plain.WriteByte(text[index])
			index++
		}
	}

	flushPlain()

	// Close any dangling spans so the output stays well-formed.
	if bold {
		out.WriteString("</strong>")
	}
	if italic {
		out.WriteString("</em>")
	}

	return out.String(), nil
}

// renderWikiLink renders the interior of a [[...]] construct and records the
// discovered target. Links to topics that do not exist yet are still valid
// links, marked with the "nonexistent" class for styling.
func (pass *renderPass) renderWikiLink(body string) (string, error) {
	target, label, hasLabel := strings.Cut(body, "|")
	target = strings.TrimSpace(target)
	if !hasLabel {
		label = target
	} else {
		label = strings.TrimSpace(label)
	}

	if err := pass.discover(target); err != nil {
		return "", err
	}

	normalized := wikiname.Normalize(target)
	exists, err := pass.renderer.resolver.TopicExists(pass.ctx, normalized)
	if err != nil {
		return "", err
	}

	href := pass.renderer.baseURL + url.PathEscape(target)
	if exists {
		return fmt.Sprintf(`<a href=%q>%s</a>`, href, html.EscapeString(label)), nil
	}
	return fmt.Sprintf(`<a href=%q class="nonexistent">%s</a>`, href, html.EscapeString(label)), nil
}
