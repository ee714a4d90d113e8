package transform_test

import (
	"testing"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/transform"
	"github.com/stretchr/testify/assert"
)

func apply(value string, kind civet.TransformKind) string {
	return transform.Apply(value, civet.TransformSpec{Kind: kind}, "")
}

func TestApply_Trim(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AB 1228", apply("  AB 1228\n", civet.TransformTrim))
}

func TestApply_Case(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "senate", apply("Senate", civet.TransformLowercase))
	assert.Equal(t, "SENATE", apply("Senate", civet.TransformUppercase))
}

func TestApply_UnknownKindReturnsValueUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", transform.Apply("x", civet.TransformSpec{Kind: "rot13"}, ""))
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	t.Run("removes nested tags keeping text order", func(t *testing.T) {
		t.Parallel()

		got := transform.StripHTML(`<div><b>Hearing</b> on <i>AB 1228</i></div>`)
		assert.Equal(t, "Hearing on AB 1228", got)
	})

	t.Run("plain text passes through", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "no markup here", transform.StripHTML("no markup here"))
	})

	t.Run("drops script and style bodies", func(t *testing.T) {
		t.Parallel()

		got := transform.StripHTML(`<p>Agenda</p><script>track("x")</script><style>p{}</style>`)
		assert.Equal(t, "Agenda", got)
	})

	t.Run("decodes entities", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Ways & Means", transform.StripHTML("<span>Ways &amp; Means</span>"))
	})
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative against base", func(t *testing.T) {
		t.Parallel()

		got := transform.ResolveURL("/members/42", "https://www.assembly.ca.gov")
		assert.Equal(t, "https://www.assembly.ca.gov/members/42", got)
	})

	t.Run("absolute input unchanged regardless of base", func(t *testing.T) {
		t.Parallel()

		got := transform.ResolveURL("https://sos.ca.gov/filings", "https://www.assembly.ca.gov")
		assert.Equal(t, "https://sos.ca.gov/filings", got)
	})

	t.Run("no base returns value unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "/members/42", transform.ResolveURL("/members/42", ""))
	})
}

func TestRegexReplace(t *testing.T) {
	t.Parallel()

	t.Run("replaces all matches", func(t *testing.T) {
		t.Parallel()

		got := transform.RegexReplace("AB-1228-X", `-`, " ", "")
		assert.Equal(t, "AB 1228 X", got)
	})

	t.Run("supports capture group references", func(t *testing.T) {
		t.Parallel()

		got := transform.RegexReplace("Bill No. 1228", `Bill No\. (\d+)`, "AB $1", "")
		assert.Equal(t, "AB 1228", got)
	})

	t.Run("case-insensitive flag", func(t *testing.T) {
		t.Parallel()

		got := transform.RegexReplace("DISTRICT 9", `district\s+`, "D", "i")
		assert.Equal(t, "D9", got)
	})

	t.Run("global flag accepted as no-op", func(t *testing.T) {
		t.Parallel()

		got := transform.RegexReplace("a.b.c", `\.`, "-", "g")
		assert.Equal(t, "a-b-c", got)
	})

	t.Run("empty pattern returns value unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "as-is", transform.RegexReplace("as-is", "", "x", ""))
	})

	t.Run("invalid pattern returns value unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "as-is", transform.RegexReplace("as-is", "([", "x", ""))
	})
}

func TestFormatName(t *testing.T) {
	t.Parallel()

	t.Run("reorders Last, First", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "John Smith", transform.FormatName("Smith, John"))
	})

	t.Run("collapses whitespace without comma", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "John Smith", transform.FormatName("  John   Smith  "))
	})

	t.Run("collapses whitespace in both parts", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Mary Anne de la Cruz", transform.FormatName("de  la   Cruz ,  Mary  Anne"))
	})

	t.Run("multiple commas only normalizes", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Smith, John, Jr.", transform.FormatName("Smith,  John,   Jr."))
	})

	t.Run("empty half degrades gracefully", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Smith", transform.FormatName("Smith,"))
		assert.Equal(t, "John", transform.FormatName(", John"))
	})
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("all supported shapes normalize to calendar date", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "2026-11-03", transform.ParseDate("November 3, 2026"))
		assert.Equal(t, "2026-02-17", transform.ParseDate("Feb 17, 2026"))
		assert.Equal(t, "2026-02-17", transform.ParseDate("02/17/26"))
		assert.Equal(t, "2025-12-25", transform.ParseDate("12/25/2025"))
		assert.Equal(t, "2026-03-15", transform.ParseDate("2026-03-15"))
	})

	t.Run("unparseable input returned unchanged", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "not a date", transform.ParseDate("not a date"))
		assert.Equal(t, "", transform.ParseDate(""))
	})

	t.Run("surrounding whitespace tolerated", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "2026-02-17", transform.ParseDate(" Feb 17, 2026 "))
	})
}
