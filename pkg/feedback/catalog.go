// Package feedback holds the localized recommendation texts shown to presenters.
package feedback

import (
	"fmt"
	"sort"
)

// Catalog is the set of recommendation strings for one language.
type Catalog struct {
	FaceNotDetected string
	EyeContactWeak  string
	EyeContactFair  string
	EyeContactGood  string

	TooStatic       string
	TooMuchMotion   string
	MotionFair      string
	MotionExcellent string

	TooFast string
	TooSlow string

	// FillerWarning is a format string taking the filler count.
	FillerWarning string

	// NoSpeech is the commentary used when nothing intelligible was said.
	NoSpeech string
	// CommentaryUnavailable is the commentary used when the model call fails.
	CommentaryUnavailable string

	// Coach chat answers used when the model is over quota or unreachable.
	ChatRateLimited string
	ChatUnavailable string
}

// Fillers formats the filler-word warning for count occurrences.
func (c Catalog) Fillers(count int) string {
	return fmt.Sprintf(c.FillerWarning, count)
}

// Catalogs maps language codes to catalogs.
// Use Lookup to resolve a language with fallback to the default.
var Catalogs = map[string]Catalog{
	"tr": {
		FaceNotDetected: "⚠️ Videoda yüzünüz bulunamadı. Işığı artırın ya da kameraya biraz yaklaşın.",
		EyeContactWeak:  "🔴 Dinleyiciyle göz temasınız zayıf kaldı. Kameraya daha sık bakmayı deneyin.",
		EyeContactFair:  "🟡 Göz temasınız yeterli, biraz daha artırabilirsiniz.",
		EyeContactGood:  "🟢 Göz temasınız çok iyi, dinleyiciyle bağ kuruyorsunuz.",

		TooStatic:       "🔴 Neredeyse hiç hareket etmiyorsunuz. Jest ve mimiklerle anlatımınızı canlandırın.",
		TooMuchMotion:   "🔴 Çok fazla hareket ediyorsunuz. Biraz daha sakin ve dengeli durmayı deneyin.",
		MotionFair:      "🟡 Hareketleriniz dengeli, jestlerinizi biraz daha bilinçli kullanabilirsiniz.",
		MotionExcellent: "🟢 Beden diliniz doğal ve canlı, harika bir denge.",

		TooFast: "🔴 Çok hızlı konuştunuz, biraz yavaşlayın.",
		TooSlow: "🟡 Çok yavaş konuştunuz, enerjinizi biraz artırın.",

		FillerWarning: "⚠️ Konuşmanızda %d kez dolgu kelime (eee, hmm, şey) kullandınız.",

		NoSpeech:              "Sesinizi duyamadım, mikrofonunuzu kontrol edip tekrar deneyin.",
		CommentaryUnavailable: "Yapay zeka yorumu şu an oluşturulamadı, puanlar ve öneriler yine de geçerlidir.",

		ChatRateLimited: "Ücretsiz kota sınırına takıldık. Lütfen 1 dakika bekle.",
		ChatUnavailable: "Şu an bağlantı kuramıyorum. Lütfen biraz sonra tekrar dene.",
	},
	"en": {
		FaceNotDetected: "⚠️ Your face was not detected in the video. Improve the lighting or move closer to the camera.",
		EyeContactWeak:  "🔴 Your eye contact with the audience is weak. Look at the camera more often.",
		EyeContactFair:  "🟡 Your eye contact is good but could be stronger.",
		EyeContactGood:  "🟢 Great eye contact, you are connecting with your audience.",

		TooStatic:       "🔴 You barely move. Use gestures and facial expression to bring the talk to life.",
		TooMuchMotion:   "🔴 You move too much. Try to stand a little calmer and steadier.",
		MotionFair:      "🟡 Your movement is balanced, you could use gestures more deliberately.",
		MotionExcellent: "🟢 Your body language is natural and lively, an excellent balance.",

		TooFast: "🔴 You spoke too fast, slow down a little.",
		TooSlow: "🟡 You spoke too slowly, bring more energy.",

		FillerWarning: "⚠️ You used filler words (um, uh, like) %d times.",

		NoSpeech:              "I couldn't hear you. Check your microphone and try again.",
		CommentaryUnavailable: "The AI commentary is unavailable right now, but the scores and recommendations above still apply.",

		ChatRateLimited: "We hit the free quota limit. Please wait a minute.",
		ChatUnavailable: "I can't connect right now. Please try again a little later.",
	},
}

// DefaultLanguage is used when a requested language has no catalog.
const DefaultLanguage = "tr"

// Lookup returns the catalog for lang, falling back to DefaultLanguage.
func Lookup(lang string) Catalog {
	if c, ok := Catalogs[lang]; ok {
		return c
	}
	return Catalogs[DefaultLanguage]
}

// Languages lists the languages with a catalog, sorted.
func Languages() []string {
	langs := make([]string, 0, len(Catalogs))
	for lang := range Catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// IsSupported returns true if lang has a catalog.
func IsSupported(lang string) bool {
	_, ok := Catalogs[lang]
	return ok
}
