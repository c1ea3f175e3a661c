package extract

import (
	"regexp"
	"strings"
)

func extractText(_ string, data []byte) (Document, error) {
	return Document{Text: strings.TrimSpace(string(data))}, nil
}

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis     = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdRule         = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	mdFirstHeading = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
)

// extractMarkdown strips formatting and keeps list markers.
func extractMarkdown(_ string, data []byte) (Document, error) {
	content := string(data)

	var title string
	if m := mdFirstHeading.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdRule.ReplaceAllString(content, "")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return Document{Title: title, Text: strings.TrimSpace(content)}, nil
}
