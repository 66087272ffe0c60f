package htmlmd

import (
	"strings"
	"testing"
)

func TestExtract_StripsHeaderAndFooter(t *testing.T) {
	raw := `<html><body>
<header>Home | About</header>
<article><h1>Apple Q4 2025 Results</h1><p>Revenue grew 8% year over year.</p></article>
<footer>Copyright 2025</footer>
</body></html>`

	md, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !containsAll(md, "Apple Q4 2025 Results", "Revenue grew 8%") {
		t.Fatalf("expected article content, got: %q", md)
	}
	if containsAny(md, "Home | About", "Copyright 2025") {
		t.Fatalf("expected header/footer stripped, got: %q", md)
	}
}

func TestExtract_DropsEmptyLines(t *testing.T) {
	raw := `<html><body><p>First.</p><p>Second.</p></body></html>`
	md, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	for _, line := range strings.Split(md, "\n") {
		if strings.TrimSpace(line) == "" {
			t.Fatalf("expected no blank lines, got: %q", md)
		}
	}
}

func TestExtract_StripsLeftoverSpanTags(t *testing.T) {
	raw := `<html><body><p><span class="hl">First</span> sentence.</p></body></html>`
	md, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if containsAny(md, "<span", "</span>") {
		t.Fatalf("expected span tags stripped, got: %q", md)
	}
}

func TestExtract_InvalidHTMLStillParses(t *testing.T) {
	// golang.org/x/net/html is forgiving of malformed markup.
	if _, err := Extract("<p>unterminated paragraph"); err != nil {
		t.Fatalf("Extract returned error for malformed html: %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
