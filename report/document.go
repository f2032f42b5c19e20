package report

import (
	"fmt"
	"html"
	"strings"
)

// DocumentHTML wraps a plain-text document artifact in a printable HTML page
// suitable for PDF conversion.
func DocumentHTML(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	b.WriteString("<style>body{margin:2cm;}pre{font-family:\"Courier New\",monospace;font-size:11pt;white-space:pre-wrap;}</style>")
	b.WriteString("</head><body><pre>")
	b.WriteString(html.EscapeString(body))
	b.WriteString("</pre></body></html>")
	return b.String()
}
