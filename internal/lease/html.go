package lease

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown     goldmark.Markdown
	markdownOnce sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return markdown
}

var (
	// Top-level clause numbers look like ordered list items to markdown.
	listLikeRe = regexp.MustCompile(`(?m)^(\s*\d+)\.(\s)`)

	// Empty signature lines would otherwise become thematic breaks.
	underscoreRunRe = regexp.MustCompile(`_{3,}`)
)

// ToHTML renders merged or assembled contract text as an HTML fragment.
// Emphasis becomes <strong>, embedded signatures become <img>, line breaks
// are kept. Raw HTML in the text is not passed through.
func ToHTML(text string) (string, error) {
	src := listLikeRe.ReplaceAllString(text, `$1\.$2`)
	src = underscoreRunRe.ReplaceAllStringFunc(src, func(run string) string {
		return strings.Repeat(`\_`, len(run))
	})

	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render contract html: %w", err)
	}
	return buf.String(), nil
}
