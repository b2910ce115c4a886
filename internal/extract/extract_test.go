package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestFromHTML_PicksLargestHintedContainer(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>Test Page</title></head>
	  <body>
	    <div class="content">Short teaser text here.</div>
	    <div class="main-content">
	      <p>This is the much longer article body that should win the
	      container comparison because it has the most text in it.</p>
	    </div>
	  </body>
	</html>`

	doc := FromHTML([]byte(html))
	if doc.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "longer article body") {
		t.Fatalf("expected winning container text; got: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "Short teaser") {
		t.Fatalf("did not expect losing container text; got: %q", doc.Text)
	}
}

func TestFromHTML_StripsNoiseElements(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>Noisy</title></head>
	  <body>
	    <nav>Nav should be ignored</nav>
	    <header>Header should be ignored</header>
	    <div role="banner">Banner role ignored</div>
	    <div class="sidebar">Sidebar links ignored</div>
	    <article class="post">
	      <p>Readable paragraph stays in the output.</p>
	      <div class="advertisement">Buy things advertisement</div>
	    </article>
	    <footer>Footer text</footer>
	  </body>
	</html>`

	doc := FromHTML([]byte(html))
	if !strings.Contains(doc.Text, "Readable paragraph stays") {
		t.Fatalf("expected article text; got: %q", doc.Text)
	}
	for _, noise := range []string{"Nav should", "Header should", "Banner role", "Sidebar links", "advertisement", "Footer text"} {
		if strings.Contains(doc.Text, noise) {
			t.Fatalf("noise %q leaked into text: %q", noise, doc.Text)
		}
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head><title>No Main</title></head>
	  <body>
	    <h2>Body Heading Here</h2>
	    <p>Body paragraph without any hinted containers.</p>
	  </body>
	</html>`

	doc := FromHTML([]byte(html))
	if !strings.Contains(doc.Text, "Body Heading Here") {
		t.Fatalf("expected body heading; got: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Body paragraph without") {
		t.Fatalf("expected body paragraph; got: %q", doc.Text)
	}
}

func TestFromHTML_CollapsesRepeatedLines(t *testing.T) {
	html := `<html><body><div class="content">
	  <p>Give me novelty.</p>
	  <p>Repeated boilerplate line.</p>
	  <p>Repeated boilerplate line.</p>
	  <p>Repeated boilerplate line.</p>
	</div></body></html>`

	doc := FromHTML([]byte(html))
	if got := strings.Count(doc.Text, "Repeated boilerplate line."); got != 1 {
		t.Fatalf("repeated line appears %d times, want 1; text: %q", got, doc.Text)
	}
}

func TestFromHTML_DropsMenuSizedLines(t *testing.T) {
	html := `<html><body><div class="content">
	  <p>FAQ</p>
	  <p>Top</p>
	  <p>A line long enough to keep.</p>
	</div></body></html>`

	doc := FromHTML([]byte(html))
	if strings.Contains(doc.Text, "FAQ") || strings.Contains(doc.Text, "Top") {
		t.Fatalf("short stub lines kept: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "long enough to keep") {
		t.Fatalf("real line lost: %q", doc.Text)
	}
}

func TestFromHTML_StripsBracketFragments(t *testing.T) {
	html := `<html><body><div class="content">
	  <p>History of computing [citation needed] and related fields.</p>
	  <p>Trailing markup fragment [/section</p>
	</div></body></html>`

	doc := FromHTML([]byte(html))
	if strings.Contains(doc.Text, "citation") || strings.Contains(doc.Text, "[") {
		t.Fatalf("bracket fragment survived: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "History of computing and related fields.") {
		t.Fatalf("bracket removal mangled line: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Trailing markup fragment") {
		t.Fatalf("half-open fragment not cleaned: %q", doc.Text)
	}
}

func TestFromHTML_CollectsMetaTags(t *testing.T) {
	html := `<!doctype html>
	<html>
	  <head>
	    <title>Meta Page</title>
	    <meta name="Description" content="A page about metadata.">
	    <meta property="og:title" content="Social Title">
	    <meta name="empty" content="">
	  </head>
	  <body><p>Body content goes here.</p></body>
	</html>`

	doc := FromHTML([]byte(html))
	if doc.Metadata["description"] != "A page about metadata." {
		t.Fatalf("description = %q", doc.Metadata["description"])
	}
	if doc.Metadata["og:title"] != "Social Title" {
		t.Fatalf("og:title = %q", doc.Metadata["og:title"])
	}
	if doc.Metadata["title"] != "Meta Page" {
		t.Fatalf("title = %q", doc.Metadata["title"])
	}
	if _, ok := doc.Metadata["empty"]; ok {
		t.Fatalf("empty meta content should be skipped")
	}
}

func TestFromHTML_CapsRunawayText(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="content">`)
	for i := 0; i < 3000; i++ {
		fmt.Fprintf(&b, "<p>Paragraph number %d with filler words to add length.</p>", i)
	}
	b.WriteString(`</div></body></html>`)

	doc := FromHTML([]byte(b.String()))
	if len(doc.Text) == 0 {
		t.Fatalf("expected text")
	}
	if len(doc.Text) > MaxTextLen {
		t.Fatalf("text length %d exceeds cap %d", len(doc.Text), MaxTextLen)
	}
	if !strings.Contains(doc.Text, "Paragraph number 0") {
		t.Fatalf("cap should keep the head of the document")
	}
}

func TestFromHTML_EmptyAndBrokenInput(t *testing.T) {
	if doc := FromHTML(nil); doc.Text != "" || doc.Title != "" {
		t.Fatalf("empty input produced %+v", doc)
	}
	doc := FromHTML([]byte("<div class=\"content\"><p>Unclosed but parseable paragraph"))
	if !strings.Contains(doc.Text, "Unclosed but parseable") {
		t.Fatalf("lenient parsing failed: %q", doc.Text)
	}
}
