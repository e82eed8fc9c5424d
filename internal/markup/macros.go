// Copyright (c) 2026 Wikara. All rights reserved.
// Author: dev@wikara.app

package markup

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/wikara/wikara/pkg/wikiname"
)

// renderMacro expands a <<name arg>> construct. Unknown macros expand to
// nothing rather than failing the render.
func (pass *renderPass) renderMacro(body string) (string, error) {
	name, argument, _ := strings.Cut(strings.TrimSpace(body), " ")
	argument = strings.TrimSpace(argument)

	switch strings.ToLower(name) {
	case "subtopics":
		return pass.macroSubtopics(argument)
	case "attachlist":
		return pass.macroAttachlist(argument)
	case "attachment":
		return pass.macroAttachment(argument), nil
	case "anchor":
		return macroAnchor(argument), nil
	case "mailto":
		return macroMailto(argument), nil
	case "gettext":
		// Translation hook in the original dialect; without a message
		// catalog the marked text passes through untranslated.
		return html.EscapeString(argument), nil
	default:
		return "", nil
	}
}

// macroSubtopics lists all live topics under a hierarchy prefix as links.
// Without an argument it lists the current topic's subtopics. Every listed
// topic is recorded as a reference of the rendered document.
func (pass *renderPass) macroSubtopics(argument string) (string, error) {
	parent := argument
	if parent == "" {
		parent = pass.current
	}
	if !wikiname.Valid(parent) {
		return "", badName(parent)
	}

	refs, err := pass.renderer.resolver.SubtopicRefs(pass.ctx, wikiname.Prefix(parent))
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", nil
	}

	var out strings.Builder
	out.WriteString(`<ul class="subtopics">` + "\n")
	for _, ref := range refs {
		pass.discoverExtra(ref)
		href := pass.renderer.baseURL + url.PathEscape(ref.Name)
		out.WriteString(fmt.Sprintf("<li><a href=%q>%s</a></li>\n", href, html.EscapeString(ref.Name)))
	}
	out.WriteString("</ul>")
	return out.String(), nil
}

// macroAttachlist lists the attachments of a topic (the current topic when no
// argument is given). Attachments are files, not topics: the listing does not
// contribute references.
func (pass *renderPass) macroAttachlist(argument string) (string, error) {
	topicName := argument
	if topicName == "" {
		topicName = pass.current
	}
	if !wikiname.Valid(topicName) {
		return "", badName(topicName)
	}

	filenames, err := pass.renderer.resolver.AttachmentNames(pass.ctx, wikiname.Normalize(topicName))
	if err != nil {
		return "", err
	}
	if len(filenames) == 0 {
		return "", nil
	}

	var out strings.Builder
	out.WriteString(`<ul class="attachments">` + "\n")
	for _, filename := range filenames {
		href := pass.renderer.baseURL + url.PathEscape(topicName) + "/attachments/" + url.PathEscape(filename)
		out.WriteString(fmt.Sprintf("<li><a href=%q>%s</a></li>\n", href, html.EscapeString(filename)))
	}
	out.WriteString("</ul>")
	return out.String(), nil
}

// macroAttachment emits an inline download link to one of the current
// topic's attachments, named by filename.
func (pass *renderPass) macroAttachment(filename string) string {
	if filename == "" {
		return ""
	}
	href := pass.renderer.baseURL + url.PathEscape(pass.current) + "/attachments/" + url.PathEscape(filename)
	return fmt.Sprintf(`<a href=%q>%s</a>`, href, html.EscapeString(filename))
}

// macroAnchor emits an in-page anchor target.
func macroAnchor(argument string) string {
	if argument == "" {
		return ""
	}
	return fmt.Sprintf(`<a id=%q></a>`, argument)
}

// macroMailto emits a mail link without exposing the address to trivial
// scraping: the visible text spells out the at sign.
func macroMailto(argument string) string {
	if argument == "" {
		return ""
	}
	visible := strings.ReplaceAll(argument, "@", " at ")
	return fmt.Sprintf(`<a href="mailto:%s">%s</a>`, html.EscapeString(argument), html.EscapeString(visible))
}
