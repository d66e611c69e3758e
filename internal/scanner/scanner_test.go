package scanner

import (
	"testing"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

const pageURL = "http://example.com/page"

func countCategory(findings []model.Finding, c model.Category) int {
	n := 0
	for _, f := range findings {
		if f.Category == c {
			n++
		}
	}
	return n
}

// TestScanEmails tests the email pass.
func TestScanEmails(t *testing.T) {
	t.Parallel()

	t.Run("same email twice yields one finding", func(t *testing.T) {
		t.Parallel()
		html := `<p>contact admin@example.com</p><footer>admin@example.com</footer>`

		findings := New().Scan(pageURL, html)
		if len(findings) != 1 {
			t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
		}
		f := findings[0]
		want := model.Finding{
			Severity: model.SeverityMedium,
			Category: model.CategoryEmailAddress,
			URL:      pageURL,
			Finding:  "admin@example.com",
			Line:     "Found email: admin@example.com",
		}
		if f != want {
			t.Errorf("got %+v, expected %+v", f, want)
		}
	})

	t.Run("distinct emails keep first-seen order", func(t *testing.T) {
		t.Parallel()
		html := "b.user@example.org\na-user@example.com\nb.user@example.org"

		findings := New().Scan(pageURL, html)
		if len(findings) != 2 {
			t.Fatalf("expected 2 findings, got %+v", findings)
		}
		if findings[0].Finding != "b.user@example.org" || findings[1].Finding != "a-user@example.com" {
			t.Errorf("unexpected order: %+v", findings)
		}
	})

	t.Run("non-ASCII addresses are matched whole", func(t *testing.T) {
		t.Parallel()
		html := "contact: jürgen@example.com or 用户@例子.广告"

		findings := New().Scan(pageURL, html)
		if len(findings) != 2 {
			t.Fatalf("expected 2 findings, got %+v", findings)
		}
		if findings[0].Finding != "jürgen@example.com" {
			t.Errorf("got %q, expected %q", findings[0].Finding, "jürgen@example.com")
		}
		if findings[1].Finding != "用户@例子.广告" {
			t.Errorf("got %q, expected %q", findings[1].Finding, "用户@例子.广告")
		}
	})

	t.Run("no email", func(t *testing.T) {
		t.Parallel()
		if got := countCategory(New().Scan(pageURL, "<p>@handle and user@host</p>"), model.CategoryEmailAddress); got != 0 {
			t.Errorf("expected no email findings, got %d", got)
		}
	})
}

// TestScanDevComments tests the developer-marker pass.
func TestScanDevComments(t *testing.T) {
	t.Parallel()

	t.Run("TODO comment", func(t *testing.T) {
		t.Parallel()
		html := "<html>\n  <!-- TODO: fix this -->\n</html>"

		findings := New().Scan(pageURL, html)
		if len(findings) != 1 {
			t.Fatalf("expected 1 finding, got %+v", findings)
		}
		f := findings[0]
		if f.Severity != model.SeverityLow || f.Category != model.CategoryDeveloperComment {
			t.Errorf("unexpected classification: %+v", f)
		}
		if f.Finding != "TODO" {
			t.Errorf("got finding %q, expected TODO", f.Finding)
		}
		if f.Line != "<!-- TODO: fix this -->" {
			t.Errorf("got line %q", f.Line)
		}
	})

	t.Run("case-insensitive match reports configured keyword", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, "// fixme later")
		if len(findings) != 1 || findings[0].Finding != "FIXME" {
			t.Errorf("unexpected findings: %+v", findings)
		}
	})

	t.Run("one finding per line per keyword", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, "TODO TODO TODO\nTODO")
		if got := countCategory(findings, model.CategoryDeveloperComment); got != 2 {
			t.Errorf("expected 2 findings, got %d: %+v", got, findings)
		}
	})

	t.Run("one line can match several keywords", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, "TODO: HACK around BUG")
		if got := countCategory(findings, model.CategoryDeveloperComment); got != 3 {
			t.Errorf("expected 3 findings, got %d", got)
		}
		want := []string{"TODO", "BUG", "HACK"}
		for i, f := range findings {
			if f.Finding != want[i] {
				t.Errorf("finding %d = %q, expected %q (keyword order)", i, f.Finding, want[i])
			}
		}
	})

	t.Run("substring matches count", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, "<a href=/debug>Debugging</a>")
		if got := countCategory(findings, model.CategoryDeveloperComment); got != 1 {
			t.Errorf("expected BUG inside debug to match, got %d", got)
		}
	})
}

// TestScanDangerousKeywords tests the dangerous-keyword pass.
func TestScanDangerousKeywords(t *testing.T) {
	t.Parallel()

	t.Run("password input field is suppressed", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, `<input type="password" name="password">`)
		if got := countCategory(findings, model.CategoryDangerousKeyword); got != 0 {
			t.Errorf("expected no dangerous keyword findings, got %+v", findings)
		}
	})

	t.Run("password assignment is reported", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, `var config = { password: "hunter2" };`)
		if len(findings) != 1 {
			t.Fatalf("expected 1 finding, got %+v", findings)
		}
		f := findings[0]
		if f.Severity != model.SeverityHigh || f.Category != model.CategoryDangerousKeyword || f.Finding != "password" {
			t.Errorf("unexpected finding: %+v", f)
		}
		if f.Line != `var config = { password: "hunter2" };` {
			t.Errorf("got line %q", f.Line)
		}
	})

	t.Run("suppression covers other keywords on a password field line", func(t *testing.T) {
		t.Parallel()
		findings := New().Scan(pageURL, `<input type="password" name="password" data-token="x">`)
		if got := countCategory(findings, model.CategoryDangerousKeyword); got != 0 {
			t.Errorf("expected suppression, got %+v", findings)
		}
	})

	t.Run("password field marker without password word is not suppressed", func(t *testing.T) {
		t.Parallel()
		// "passwd" matches but the line lacks the word "password".
		findings := New().Scan(pageURL, `<input type='text' name="passwd">`)
		if got := countCategory(findings, model.CategoryDangerousKeyword); got != 1 {
			t.Errorf("expected 1 finding, got %+v", findings)
		}
	})

	t.Run("overlapping keywords both match", func(t *testing.T) {
		t.Parallel()
		// "api_key" and "token" on one line.
		findings := New().Scan(pageURL, `const api_key = token;`)
		if got := countCategory(findings, model.CategoryDangerousKeyword); got != 2 {
			t.Errorf("expected 2 findings, got %+v", findings)
		}
	})
}

// TestScanPassOrder tests emails, then developer comments, then dangerous keywords.
func TestScanPassOrder(t *testing.T) {
	t.Parallel()

	html := "secret: x\nTODO\nops@example.com"
	findings := New().Scan(pageURL, html)

	want := []model.Category{
		model.CategoryEmailAddress,
		model.CategoryDeveloperComment,
		model.CategoryDangerousKeyword,
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %+v", len(want), findings)
	}
	for i, c := range want {
		if findings[i].Category != c {
			t.Errorf("finding %d category %q, expected %q", i, findings[i].Category, c)
		}
	}
}

// TestScanCustomKeywords tests keyword configuration.
func TestScanCustomKeywords(t *testing.T) {
	t.Parallel()

	s := New(
		WithDevCommentKeywords([]string{"XXX", ""}),
		WithSensitiveKeywords([]string{"private.key"}),
	)

	findings := s.Scan(pageURL, "XXX remove\nprivate.key=abc\nprivateXkey=abc\nTODO")
	if got := countCategory(findings, model.CategoryDeveloperComment); got != 1 {
		t.Errorf("expected 1 developer comment, got %+v", findings)
	}
	// Keywords are literal: "." does not match "X".
	if got := countCategory(findings, model.CategoryDangerousKeyword); got != 1 {
		t.Errorf("expected 1 dangerous keyword, got %+v", findings)
	}
}

// TestScanEmptyPage tests that a clean page yields an empty, non-nil slice.
func TestScanEmptyPage(t *testing.T) {
	t.Parallel()

	findings := New().Scan(pageURL, "")
	if findings == nil || len(findings) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", findings)
	}
}
