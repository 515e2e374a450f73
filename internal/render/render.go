// Package render turns fetched markup into something a terminal can show.
// It is presentation only; the fetch pipeline never calls it.
package render

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every tag, decodes entities and squeezes whitespace. Line
// breaks survive, runs of blank lines become one.
func Text(markup string) string {
	stripped := html.UnescapeString(strict.Sanitize(markup))

	var b strings.Builder
	blank := true
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				b.WriteByte('\n')
			}
			blank = true
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		blank = false
	}
	return strings.TrimSpace(b.String())
}

// Title returns the document's <title>, or "" when it has none.
func Title(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
