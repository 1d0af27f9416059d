package wordpress

import (
	"strings"

	"golang.org/x/net/html"
)

// TitleText reduces a rendered title to its plain text: tags are dropped,
// character references decoded, and runs of whitespace collapsed.
func TitleText(rendered string) string {
	z := html.NewTokenizer(strings.NewReader(rendered))
	var b strings.Builder
	var skip int

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or a reader error from a strings.Reader that cannot happen.
			return collapse(b.String())

		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}

		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	tn, _ := z.TagName()
	switch string(tn) {
	case "script", "style":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
