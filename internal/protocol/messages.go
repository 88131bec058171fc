package protocol

import "time"

// SynthRequest asks the synthesis service to speak text for a session.
type SynthRequest struct {
	SessionID string  `json:"session_id"`
	Target    string  `json:"target,omitempty"`
	Text      string  `json:"text"`
	SpeakerID int     `json:"speaker_id"`
	Speed     float32 `json:"speed,omitempty"`
}

// AudioChunk is one streamed PCM chunk. PCM is 16-bit little-endian mono at
// SampleRate; Progress mirrors the engine's streaming contract.
type AudioChunk struct {
	SessionID  string  `json:"session_id"`
	Target     string  `json:"target,omitempty"`
	Sequence   int     `json:"sequence"`
	SampleRate int     `json:"sample_rate"`
	PCM        []byte  `json:"pcm"`
	Progress   float32 `json:"progress"`
	Final      bool    `json:"final"`
}

// SynthStatus reports completion or cancellation of one synthesis run.
type SynthStatus struct {
	SessionID string    `json:"session_id"`
	Target    string    `json:"target,omitempty"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DetectRequest asks the detection service to classify a model directory.
// Direction is "stt" or "tts". The reply is the JSON-encoded detection
// result for that direction.
type DetectRequest struct {
	Direction  string `json:"direction"`
	ModelDir   string `json:"model_dir"`
	ModelType  string `json:"model_type,omitempty"`
	PreferInt8 bool   `json:"prefer_int8,omitempty"`
}

const (
	SubjectSynthRequest = "synth.request"
	SubjectSynthAudio   = "synth.audio"
	SubjectSynthDone    = "synth.done"
	SubjectModelsDetect = "models.detect"
)
