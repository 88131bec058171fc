// Package modeldetect classifies speech model directories and resolves the
// file paths an inference engine needs to load them.
package modeldetect

// DetectedModel describes one architecture candidate found in a directory.
type DetectedModel struct {
	Type     string `json:"type"`
	ModelDir string `json:"model_dir"`
}

// STTKind names a speech-to-text architecture family.
type STTKind string

const (
	STTUnknown      STTKind = "unknown"
	STTTransducer   STTKind = "transducer"
	STTParaformer   STTKind = "paraformer"
	STTNemoCTC      STTKind = "nemo-ctc"
	STTWenetCTC     STTKind = "wenet-ctc"
	STTSenseVoice   STTKind = "sense-voice"
	STTZipformerCTC STTKind = "zipformer-ctc"
	STTWhisper      STTKind = "whisper"
	STTFunASRNano   STTKind = "funasr-nano"
)

// TTSKind names a text-to-speech architecture family.
type TTSKind string

const (
	TTSUnknown  TTSKind = "unknown"
	TTSVits     TTSKind = "vits"
	TTSMatcha   TTSKind = "matcha"
	TTSKokoro   TTSKind = "kokoro"
	TTSKitten   TTSKind = "kitten"
	TTSZipvoice TTSKind = "zipvoice"
)

// STTPaths holds the resolved model files for a selected STT kind. An empty
// slot means the role does not apply to the selected kind, not that a file
// is missing.
type STTPaths struct {
	Encoder              string `json:"encoder,omitempty"`
	Decoder              string `json:"decoder,omitempty"`
	Joiner               string `json:"joiner,omitempty"`
	ParaformerModel      string `json:"paraformer_model,omitempty"`
	CTCModel             string `json:"ctc_model,omitempty"`
	WhisperEncoder       string `json:"whisper_encoder,omitempty"`
	WhisperDecoder       string `json:"whisper_decoder,omitempty"`
	Tokens               string `json:"tokens,omitempty"`
	FunASREncoderAdaptor string `json:"funasr_encoder_adaptor,omitempty"`
	FunASRLLM            string `json:"funasr_llm,omitempty"`
	FunASREmbedding      string `json:"funasr_embedding,omitempty"`
	FunASRTokenizer      string `json:"funasr_tokenizer,omitempty"`
}

// TTSPaths holds the resolved model files for a selected TTS kind.
type TTSPaths struct {
	Model         string `json:"model,omitempty"`
	Tokens        string `json:"tokens,omitempty"`
	Lexicon       string `json:"lexicon,omitempty"`
	DataDir       string `json:"data_dir,omitempty"`
	Voices        string `json:"voices,omitempty"`
	AcousticModel string `json:"acoustic_model,omitempty"`
	Vocoder       string `json:"vocoder,omitempty"`
	Encoder       string `json:"encoder,omitempty"`
	Decoder       string `json:"decoder,omitempty"`
}

// STTResult summarizes one STT detection run. OK=true implies SelectedKind
// is not unknown and every required path exists on disk.
type STTResult struct {
	OK             bool            `json:"ok"`
	Error          string          `json:"error,omitempty"`
	DetectedModels []DetectedModel `json:"detected_models"`
	SelectedKind   STTKind         `json:"selected_kind"`
	TokensRequired bool            `json:"tokens_required"`
	Paths          STTPaths        `json:"paths"`
}

// TTSResult summarizes one TTS detection run.
type TTSResult struct {
	OK             bool            `json:"ok"`
	Error          string          `json:"error,omitempty"`
	DetectedModels []DetectedModel `json:"detected_models"`
	SelectedKind   TTSKind         `json:"selected_kind"`
	Paths          TTSPaths        `json:"paths"`
}
