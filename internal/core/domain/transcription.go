package domain

// Audio is a recorded utterance to transcribe.
type Audio struct {
	// Filename is the original upload name, used for the multipart part.
	Filename string

	// Data holds the raw audio bytes.
	Data []byte

	// Language is an optional language code hint ("es", "en").
	Language string
}

// IsEmpty returns true when there is no audio to send.
func (a Audio) IsEmpty() bool {
	return len(a.Data) == 0
}

// Transcription is the text recognised from an Audio.
type Transcription struct {
	Text     string `json:"transcription"`
	Language string `json:"language,omitempty"`
}
