package speech

// Status describes how far transcription got
type Status string

const (
	StatusOK             Status = "ok"             // Transcript received
	StatusSilent         Status = "silent"         // Recording is digitally silent, service not called
	StatusUnintelligible Status = "unintelligible" // Service returned no words
	StatusFailed         Status = "failed"         // Service error
	StatusSkipped        Status = "skipped"        // No transcriber configured
	StatusUnreadable     Status = "unreadable"     // Audio could not be decoded
)

// SpeakingRate is the pace of speech
type SpeakingRate struct {
	WordsPerMinute int `json:"words_per_minute"`
}

// FillerWords summarizes hesitation sounds and discourse fillers
type FillerWords struct {
	Count     int            `json:"count"`
	List      []string       `json:"list"`      // Distinct forms in first-seen order
	Ratio     float64        `json:"ratio"`     // Percent of all words
	Breakdown map[string]int `json:"breakdown"` // Form -> occurrences
}

// AudioFeatures are the signal statistics of the recording
type AudioFeatures struct {
	MonotonyScore   float64 `json:"monotony_score"`   // 100 - liveliness
	LivelinessScore float64 `json:"liveliness_score"` // 0-100, higher is more expressive
	PitchVariation  float64 `json:"pitch_variation"`  // Hz
	EnergyVariation float64 `json:"energy_variation"` // RMS units
}

// Features is the full speech analysis of one audio file
type Features struct {
	Transcript      string        `json:"transcript"`
	DurationSeconds float64       `json:"duration_seconds"`
	WordCount       int           `json:"word_count"`
	Status          Status        `json:"status"`
	Warnings        []string      `json:"warnings"`
	SpeakingRate    SpeakingRate  `json:"speaking_rate"`
	FillerWords     FillerWords   `json:"filler_words"`
	AudioFeatures   AudioFeatures `json:"audio_features"`
}

// Zero returns the placeholder used when there is no audio
func Zero() Features {
	return Features{
		Warnings:    []string{},
		FillerWords: FillerWords{List: []string{}, Breakdown: map[string]int{}},
	}
}

// Result is either Present(Features) or Absent
type Result struct {
	features Features
	present  bool
}

// Present wraps the features of an analyzed recording
func Present(f Features) Result {
	return Result{features: f, present: true}
}

// Absent marks a session without audio
func Absent() Result {
	return Result{}
}

// IsPresent reports whether audio was analyzed
func (r Result) IsPresent() bool {
	return r.present
}

// Features returns the features and whether they are present
func (r Result) Features() (Features, bool) {
	return r.features, r.present
}

// OrZero returns the features, or the zero placeholder when absent
func (r Result) OrZero() Features {
	if !r.present {
		return Zero()
	}
	return r.features
}
