// Package markdown renders blog-post Markdown as HTML, exposed as a
// templ component. Supported syntax: headings, paragraphs, unordered
// and ordered lists, blockquotes, tables, fenced code blocks, inline
// code, bold, italic, strikethrough, links, images, and bare-URL
// autolinking. All URLs pass a scheme allowlist.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reStrike           = regexp.MustCompile(`~~(.+?)~~`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImg              = regexp.MustCompile(`\!\[(.*?)\]\((.*?)\)`)
	reAutolink         = regexp.MustCompile(`(^|\s)(https?://[^\s<]+)`)
	reOrderedItem      = regexp.MustCompile(`^(\d+)\.\s`)
)

// Content returns a templ.Component that renders md as HTML.
func Content(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of md to buf.
func Render(buf *bytes.Buffer, md string) {
	lines := strings.Split(md, "\n")

	var (
		inPara        bool
		inList        bool
		inOrderedList bool
		inQuote       bool
		inCode        bool
		inTable       bool
		tableBodyOpen bool
	)

	closePara := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
	}
	closeList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	closeOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}
	closeQuote := func() {
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}
	closeTable := func() {
		if inTable {
			if tableBodyOpen {
				buf.WriteString("</tbody>")
			}
			buf.WriteString("</table>")
			inTable = false
			tableBodyOpen = false
		}
	}
	closeBlocks := func() {
		closePara()
		closeList()
		closeOrderedList()
		closeQuote()
		closeTable()
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")

		if strings.HasPrefix(line, "```") {
			if inCode {
				buf.WriteString("</code></pre>")
				inCode = false
			} else {
				closeBlocks()
				lang := strings.TrimSpace(line[3:])
				if lang != "" {
					buf.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
				} else {
					buf.WriteString("<pre><code>")
				}
				inCode = true
			}
			continue
		}
		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		if strings.TrimSpace(line) == "" {
			closeBlocks()
			continue
		}

		switch {
		case strings.HasPrefix(line, "---") && strings.TrimRight(line, "-") == "":
			closeBlocks()
			buf.WriteString("<hr/>")
		case strings.HasPrefix(line, "#"):
			level := 0
			for level < len(line) && line[level] == '#' && level < 6 {
				level++
			}
			rest := strings.TrimSpace(line[level:])
			closeBlocks()
			tag := "h" + strconv.Itoa(level)
			buf.WriteString("<" + tag + ">")
			buf.WriteString(Inline(rest))
			buf.WriteString("</" + tag + ">")
		case strings.HasPrefix(line, "|"):
			cells := tableCells(line)
			if !inTable {
				closeBlocks()
				buf.WriteString("<table><thead><tr>")
				for _, cell := range cells {
					buf.WriteString("<th>")
					buf.WriteString(Inline(cell))
					buf.WriteString("</th>")
				}
				buf.WriteString("</tr></thead>")
				inTable = true
			} else if isTableSeparator(line) {
				if !tableBodyOpen {
					buf.WriteString("<tbody>")
					tableBodyOpen = true
				}
			} else {
				if !tableBodyOpen {
					buf.WriteString("<tbody>")
					tableBodyOpen = true
				}
				buf.WriteString("<tr>")
				for _, cell := range cells {
					buf.WriteString("<td>")
					buf.WriteString(Inline(cell))
					buf.WriteString("</td>")
				}
				buf.WriteString("</tr>")
			}
		case strings.HasPrefix(line, "- "):
			if !inList {
				closePara()
				closeOrderedList()
				closeQuote()
				closeTable()
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(Inline(strings.TrimSpace(line[2:])))
			buf.WriteString("</li>")
		case reOrderedItem.MatchString(line):
			if !inOrderedList {
				closePara()
				closeList()
				closeQuote()
				closeTable()
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(Inline(strings.TrimSpace(reOrderedItem.ReplaceAllString(line, ""))))
			buf.WriteString("</li>")
		case strings.HasPrefix(line, "> "):
			if !inQuote {
				closePara()
				closeList()
				closeOrderedList()
				closeTable()
				buf.WriteString("<blockquote>")
				inQuote = true
			}
			buf.WriteString(Inline(strings.TrimSpace(line[2:])))
		default:
			if !inPara {
				closeList()
				closeOrderedList()
				closeQuote()
				closeTable()
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteString(" ")
			}
			buf.WriteString(Inline(strings.TrimSpace(line)))
		}
	}
	closeBlocks()
	if inCode {
		buf.WriteString("</code></pre>")
	}
}

func tableCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isTableSeparator(line string) bool {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "|")
	for _, cell := range strings.Split(line, "|") {
		cleaned := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(cell), "-", ""), ":", "")
		if cleaned != "" {
			return false
		}
	}
	return true
}

// applyOutsideTags applies fn only to text segments outside HTML tags,
// so formatting regexes never touch URLs inside href attributes.
func applyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// Inline applies inline formatting (code, images, links, autolinks,
// bold, italic, strikethrough) to s.
func Inline(s string) string {
	escaped := html.EscapeString(s)

	// Extract inline code first so nothing inside backticks is formatted.
	var codeSpans []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reInlineCode.FindStringSubmatch(m)
		placeholder := "\x00C" + strconv.Itoa(len(codeSpans)) + "\x00"
		codeSpans = append(codeSpans, "<code>"+match[1]+"</code>")
		return placeholder
	})

	escaped = reImg.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reImg.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img alt="` + match[1] + `" src="` + src + `" loading="lazy" decoding="async"/>`
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})
	// Bare URLs become placeholders so the emphasis regexes below never
	// touch underscores inside them.
	var autolinks []string
	escaped = applyOutsideTags(escaped, func(seg string) string {
		return reAutolink.ReplaceAllStringFunc(seg, func(m string) string {
			match := reAutolink.FindStringSubmatch(m)
			href := SafeURL(match[2])
			if href == "" {
				return m
			}
			placeholder := "\x00A" + strconv.Itoa(len(autolinks)) + "\x00"
			autolinks = append(autolinks, `<a href="`+href+`">`+match[2]+`</a>`)
			return match[1] + placeholder
		})
	})
	escaped = applyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		seg = reStrike.ReplaceAllString(seg, "<del>$1</del>")
		return seg
	})

	for i, link := range autolinks {
		escaped = strings.Replace(escaped, "\x00A"+strconv.Itoa(i)+"\x00", link, 1)
	}
	for i, code := range codeSpans {
		escaped = strings.Replace(escaped, "\x00C"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return escaped
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
