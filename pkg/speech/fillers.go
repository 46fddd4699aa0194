package speech

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// fillerPatterns are whole-token hesitation and filler patterns per language
var fillerPatterns = map[string][]string{
	"tr": {
		`ı+ı+`, `e+e+`, `hı+m`, `hmm+`,
		`şey`, `yani`, `hani`,
		`falan`, `filan`, `acaba`, `işte`,
	},
	"en": {
		`u+m+`, `u+h+`, `e+r+m*`, `a+h+`, `hmm+`,
		`like`, `basically`, `literally`,
	},
}

// FillerCatalog matches filler words of one language
type FillerCatalog struct {
	lang     string
	patterns []*regexp.Regexp
}

// NewFillerCatalog compiles the catalog for lang, falling back to Turkish
func NewFillerCatalog(lang string) *FillerCatalog {
	raw, ok := fillerPatterns[lang]
	if !ok {
		lang = "tr"
		raw = fillerPatterns[lang]
	}

	c := &FillerCatalog{lang: lang}
	for _, p := range raw {
		c.patterns = append(c.patterns, regexp.MustCompile(`^(?:`+p+`)$`))
	}
	return c
}

// Language returns the catalog's language
func (c *FillerCatalog) Language() string {
	return c.lang
}

// Lower lower-cases text with the language's casing rules (Turkish dotted/dotless i)
func (c *FillerCatalog) Lower(text string) string {
	if c.lang == "tr" {
		return strings.ToLowerSpecial(unicode.TurkishCase, text)
	}
	return strings.ToLower(text)
}

// IsFiller reports whether a lower-cased token is a filler
func (c *FillerCatalog) IsFiller(token string) bool {
	for _, p := range c.patterns {
		if p.MatchString(token) {
			return true
		}
	}
	return false
}

// Count finds fillers in a transcript. wordCount is the whitespace word count
// used for the ratio.
func (c *FillerCatalog) Count(transcript string, wordCount int) FillerWords {
	fw := FillerWords{List: []string{}, Breakdown: map[string]int{}}

	for _, tok := range Tokens(c.Lower(transcript)) {
		if !c.IsFiller(tok) {
			continue
		}
		if _, seen := fw.Breakdown[tok]; !seen {
			fw.List = append(fw.List, tok)
		}
		fw.Breakdown[tok]++
		fw.Count++
	}

	if wordCount > 0 {
		fw.Ratio = math.Round(float64(fw.Count)/float64(wordCount)*100*10) / 10
	}
	return fw
}

// Tokens splits text into word tokens. Anything that is not a letter,
// digit or underscore separates tokens.
func Tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Summary formats fillers as "eee (3), hmm (2)" in first-seen order
func (fw FillerWords) Summary() string {
	parts := make([]string, 0, len(fw.List))
	for _, form := range fw.List {
		parts = append(parts, fmt.Sprintf("%s (%d)", form, fw.Breakdown[form]))
	}
	return strings.Join(parts, ", ")
}
