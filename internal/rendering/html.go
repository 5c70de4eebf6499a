// Package rendering turns generated markdown documents into HTML.
package rendering

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Heading is one markdown heading of a rendered document
type Heading struct {
	Level int
	Text  string
	ID    string
}

// Page is the data passed to the standalone page template
type Page struct {
	Title string
	Body  template.HTML
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
pre { background: #f5f5f5; padding: 0.75rem; overflow-x: auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// MarkdownToHTML renders GitHub flavoured markdown to an HTML fragment.
// Raw HTML in the source is omitted.
func MarkdownToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", &RenderError{Message: "failed to convert markdown", Cause: err}
	}
	return buf.String(), nil
}

// RenderPage renders source as a complete HTML document. When title is empty
// the first heading is used.
func RenderPage(source, title string) (string, error) {
	body, err := MarkdownToHTML(source)
	if err != nil {
		return "", err
	}
	if title == "" {
		if headings := Outline(source); len(headings) > 0 {
			title = headings[0].Text
		}
	}

	var out strings.Builder
	// body comes from goldmark with raw HTML disabled
	if err := pageTemplate.Execute(&out, Page{Title: title, Body: template.HTML(body)}); err != nil {
		return "", &TemplateError{Message: "failed to execute page template", Cause: err}
	}
	return out.String(), nil
}

// Outline lists the headings of a markdown document in order
func Outline(source string) []Heading {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: nodeText(h, src)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		headings = append(headings, heading)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// nodeText concatenates the text segments below n
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
