package extract

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is a simplified representation of extracted page content.
type Document struct {
	Title    string
	Text     string
	Metadata map[string]string
}

// MaxTextLen caps extracted text. Pages past the cap keep their head; the
// tail is usually comment threads and link farms.
const MaxTextLen = 50000

// noiseTags are removed wholesale before any content selection.
var noiseTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "iframe": true,
}

// noiseClasses are class tokens that mark chrome, menus, and ads.
var noiseClasses = map[string]bool{
	"menu": true, "sidebar": true, "navigation": true,
	"ad": true, "advertisement": true,
}

// candidateHints mark containers likely to hold the article body.
var candidateHints = []string{"content", "main", "article", "body", "entry", "post", "text"}

// bracketRe matches bracketed fragments and malformed half-open tags that
// survive templating; they render as junk in plain text.
var bracketRe = regexp.MustCompile(`\[/?[^\]]*\]?`)

// FromHTML extracts the readable core of a page. It prunes boilerplate,
// prefers the largest container whose class or id hints at main content,
// and falls back to <body> and then the whole document.
func FromHTML(input []byte) Document {
	root, err := parseHTML(input)
	if err != nil || root == nil {
		return Document{}
	}

	title := strings.TrimSpace(pageTitle(root))
	meta := metaTags(root)
	if title != "" {
		meta["title"] = title
	}

	pruneNoise(root)

	content := largestCandidate(root)
	if content == nil {
		content = findFirst(root, "body")
	}
	if content == nil {
		content = root
	}

	return Document{
		Title:    title,
		Text:     cleanLines(textLines(content)),
		Metadata: meta,
	}
}

// parseHTML decodes whatever charset the page declares before parsing.
func parseHTML(input []byte) (*html.Node, error) {
	r, err := charset.NewReader(bytes.NewReader(input), "text/html")
	if err != nil {
		return html.Parse(bytes.NewReader(input))
	}
	return html.Parse(r)
}

func pageTitle(n *html.Node) string {
	t := findFirst(n, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

// metaTags flattens <meta name|property ... content=...> pairs. Later
// declarations win, matching how browsers expose them.
func metaTags(root *html.Node) map[string]string {
	meta := make(map[string]string)
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "meta") {
			return true
		}
		name := attr(n, "name")
		if name == "" {
			name = attr(n, "property")
		}
		content := attr(n, "content")
		if name != "" && content != "" {
			meta[strings.ToLower(name)] = content
		}
		return true
	})
	return meta
}

// pruneNoise unlinks navigation chrome, scripts, and ad containers so they
// never count toward candidate sizes or leak into text.
func pruneNoise(root *html.Node) {
	var doomed []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if isNoise(n) {
			doomed = append(doomed, n)
			return false
		}
		return true
	})
	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func isNoise(n *html.Node) bool {
	if noiseTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, token := range strings.Fields(attr(n, "class")) {
		if noiseClasses[strings.ToLower(token)] {
			return true
		}
	}
	switch strings.ToLower(attr(n, "role")) {
	case "banner", "navigation":
		return true
	}
	return false
}

// largestCandidate returns the main/article/div/section with a content
// hint in its class or id whose text is longest, nil when none match.
func largestCandidate(root *html.Node) *html.Node {
	var best *html.Node
	bestLen := -1
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch strings.ToLower(n.Data) {
		case "main", "article", "div", "section":
		default:
			return true
		}
		if !hasContentHint(n) {
			return true
		}
		if l := textLen(n); l > bestLen {
			best, bestLen = n, l
		}
		return true
	})
	return best
}

func hasContentHint(n *html.Node) bool {
	haystack := strings.ToLower(attr(n, "class") + " " + attr(n, "id"))
	for _, hint := range candidateHints {
		if strings.Contains(haystack, hint) {
			return true
		}
	}
	return false
}

func textLen(n *html.Node) int {
	total := 0
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			total += len(strings.TrimSpace(c.Data))
		}
		return true
	})
	return total
}

// textLines flattens every text node under n into one trimmed line each,
// in document order.
func textLines(n *html.Node) []string {
	var lines []string
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			if s := strings.TrimSpace(c.Data); s != "" {
				lines = append(lines, s)
			}
		}
		return true
	})
	return lines
}

// cleanLines collapses whitespace and repeated lines, strips bracket
// fragments, drops menu-sized stubs, and caps the total length.
func cleanLines(lines []string) string {
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		line = collapseSpaces(line)
		line = strings.TrimSpace(bracketRe.ReplaceAllString(line, " "))
		line = collapseSpaces(line)
		if line == prev {
			continue
		}
		prev = line
		// Very short lines are almost always menu items or separators.
		if utf8.RuneCountInString(line) <= 3 {
			continue
		}
		out = append(out, line)
	}
	text := strings.TrimSpace(strings.Join(out, "\n"))
	return capText(text, MaxTextLen)
}

// capText truncates at the last line break before max, or at the nearest
// rune boundary when the text is one enormous line.
func capText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndexByte(s[:max], '\n')
	if cut <= 0 {
		cut = max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return strings.TrimSpace(s[:cut])
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	walk(n, func(cur *html.Node) bool {
		if res != nil {
			return false
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return false
		}
		return true
	})
	return res
}

// walk visits n and its descendants in document order; visit returning
// false skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
