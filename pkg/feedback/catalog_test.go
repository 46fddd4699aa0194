package feedback

import (
	"strings"
	"testing"
)

func TestLookup_Fallback(t *testing.T) {
	if got := Lookup("xx"); got != Catalogs[DefaultLanguage] {
		t.Error("unknown language should fall back to the default catalog")
	}
	if got := Lookup("en"); got != Catalogs["en"] {
		t.Error("en should resolve to the English catalog")
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "tr" {
		t.Errorf("Languages() = %v, want [en tr]", langs)
	}
	if !IsSupported("tr") || IsSupported("de") {
		t.Error("IsSupported should accept tr and reject de")
	}
}

func TestCatalogs_Complete(t *testing.T) {
	for lang, c := range Catalogs {
		fields := map[string]string{
			"FaceNotDetected":       c.FaceNotDetected,
			"EyeContactWeak":        c.EyeContactWeak,
			"EyeContactFair":        c.EyeContactFair,
			"EyeContactGood":        c.EyeContactGood,
			"TooStatic":             c.TooStatic,
			"TooMuchMotion":         c.TooMuchMotion,
			"MotionFair":            c.MotionFair,
			"MotionExcellent":       c.MotionExcellent,
			"TooFast":               c.TooFast,
			"TooSlow":               c.TooSlow,
			"FillerWarning":         c.FillerWarning,
			"NoSpeech":              c.NoSpeech,
			"CommentaryUnavailable": c.CommentaryUnavailable,
			"ChatRateLimited":       c.ChatRateLimited,
			"ChatUnavailable":       c.ChatUnavailable,
		}
		for name, v := range fields {
			if v == "" {
				t.Errorf("%s: %s is empty", lang, name)
			}
		}
	}
}

func TestFillers_NamesCount(t *testing.T) {
	for lang := range Catalogs {
		msg := Lookup(lang).Fillers(7)
		if !strings.Contains(msg, "7") {
			t.Errorf("%s: filler warning %q should name the count", lang, msg)
		}
	}
}
