package modeldetect

// Role names a function a model file serves within an architecture's
// required-file signature.
type Role string

const (
	RoleEncoder              Role = "encoder"
	RoleDecoder              Role = "decoder"
	RoleJoiner               Role = "joiner"
	RoleTokens               Role = "tokens"
	RoleParaformer           Role = "paraformer"
	RoleNemoCTC              Role = "nemo-ctc"
	RoleWenetCTC             Role = "wenet-ctc"
	RoleSenseVoice           Role = "sense-voice"
	RoleZipformerCTC         Role = "zipformer-ctc"
	RoleFunASREncoderAdaptor Role = "funasr-encoder-adaptor"
	RoleFunASRLLM            Role = "funasr-llm"
	RoleFunASREmbedding      Role = "funasr-embedding"
	RoleFunASRTokenizer      Role = "funasr-tokenizer"
	RoleVitsModel            Role = "vits-model"
	RoleAcousticModel        Role = "acoustic-model"
	RoleVocoder              Role = "vocoder"
	RoleKokoroModel          Role = "kokoro-model"
	RoleKittenModel          Role = "kitten-model"
	RoleVoices               Role = "voices"
	RoleLexicon              Role = "lexicon"
	RoleDataDir              Role = "data-dir"
)

// Pattern maps a role to the filename conventions that satisfy it. Keywords
// is any-of over groups; every substring inside one group must appear in the
// lowercased filename. Empty Exts accepts any extension. Dir roles are
// resolved by a directory entry instead of a file.
type Pattern struct {
	Keywords [][]string
	Exts     []string
	Dir      bool
}

// Patterns is the published role-recognition table. Detection behavior is a
// pure function of this table plus the signatures below; changing either
// changes what the classifiers accept.
var Patterns = map[Role]Pattern{
	RoleEncoder:              {Keywords: [][]string{{"encoder"}}, Exts: []string{".onnx"}},
	RoleDecoder:              {Keywords: [][]string{{"decoder"}}, Exts: []string{".onnx"}},
	RoleJoiner:               {Keywords: [][]string{{"joiner"}}, Exts: []string{".onnx"}},
	RoleTokens:               {Keywords: [][]string{{"tokens"}}, Exts: []string{".txt"}},
	RoleParaformer:           {Keywords: [][]string{{"paraformer"}}, Exts: []string{".onnx"}},
	RoleNemoCTC:              {Keywords: [][]string{{"nemo"}}, Exts: []string{".onnx"}},
	RoleWenetCTC:             {Keywords: [][]string{{"wenet"}}, Exts: []string{".onnx"}},
	RoleSenseVoice:           {Keywords: [][]string{{"sense-voice"}, {"sense_voice"}}, Exts: []string{".onnx"}},
	RoleZipformerCTC:         {Keywords: [][]string{{"zipformer", "ctc"}}, Exts: []string{".onnx"}},
	RoleFunASREncoderAdaptor: {Keywords: [][]string{{"encoder_adaptor"}, {"encoder-adaptor"}}, Exts: []string{".onnx"}},
	RoleFunASRLLM:            {Keywords: [][]string{{"llm"}}, Exts: []string{".onnx"}},
	RoleFunASREmbedding:      {Keywords: [][]string{{"embedding"}}, Exts: []string{".onnx"}},
	RoleFunASRTokenizer:      {Keywords: [][]string{{"tokenizer"}}},
	RoleVitsModel:            {Keywords: [][]string{{"vits"}, {"model"}}, Exts: []string{".onnx"}},
	RoleAcousticModel:        {Keywords: [][]string{{"matcha"}}, Exts: []string{".onnx"}},
	RoleVocoder:              {Keywords: [][]string{{"vocoder"}, {"vocos"}, {"hifigan"}}, Exts: []string{".onnx"}},
	RoleKokoroModel:          {Keywords: [][]string{{"kokoro"}}, Exts: []string{".onnx"}},
	RoleKittenModel:          {Keywords: [][]string{{"kitten"}}, Exts: []string{".onnx"}},
	RoleVoices:               {Keywords: [][]string{{"voices"}}, Exts: []string{".bin"}},
	RoleLexicon:              {Keywords: [][]string{{"lexicon"}}, Exts: []string{".txt"}},
	RoleDataDir:              {Keywords: [][]string{{"espeak-ng-data"}}, Dir: true},
}

// STTSignature declares which roles an STT kind needs before it can be
// selected.
type STTSignature struct {
	Kind     STTKind
	Required []Role
}

// STTSignatures is walked in order; the first kind whose required roles are
// all present wins. Ties between kinds are therefore resolved by position,
// never reported as errors.
var STTSignatures = []STTSignature{
	{Kind: STTTransducer, Required: []Role{RoleEncoder, RoleDecoder, RoleJoiner, RoleTokens}},
	{Kind: STTParaformer, Required: []Role{RoleParaformer, RoleTokens}},
	{Kind: STTNemoCTC, Required: []Role{RoleNemoCTC, RoleTokens}},
	{Kind: STTWenetCTC, Required: []Role{RoleWenetCTC, RoleTokens}},
	{Kind: STTSenseVoice, Required: []Role{RoleSenseVoice, RoleTokens}},
	{Kind: STTZipformerCTC, Required: []Role{RoleZipformerCTC, RoleTokens}},
	{Kind: STTWhisper, Required: []Role{RoleEncoder, RoleDecoder, RoleTokens}},
	{Kind: STTFunASRNano, Required: []Role{RoleFunASREncoderAdaptor, RoleFunASRLLM, RoleFunASREmbedding, RoleFunASRTokenizer}},
}

// TTSSignature declares required and optional roles for a TTS kind.
type TTSSignature struct {
	Kind     TTSKind
	Required []Role
	Optional []Role
}

// TTSSignatures puts the most specific kinds first; vits comes last because
// its model keyword ("model") is the loosest.
var TTSSignatures = []TTSSignature{
	{Kind: TTSMatcha, Required: []Role{RoleAcousticModel, RoleVocoder, RoleTokens}, Optional: []Role{RoleDataDir}},
	{Kind: TTSKokoro, Required: []Role{RoleKokoroModel, RoleVoices, RoleTokens}, Optional: []Role{RoleLexicon, RoleDataDir}},
	{Kind: TTSKitten, Required: []Role{RoleKittenModel, RoleVoices, RoleTokens}, Optional: []Role{RoleDataDir}},
	{Kind: TTSZipvoice, Required: []Role{RoleEncoder, RoleDecoder, RoleTokens}},
	{Kind: TTSVits, Required: []Role{RoleVitsModel, RoleTokens}, Optional: []Role{RoleLexicon, RoleDataDir}},
}

func sttSignatureFor(kind STTKind) (STTSignature, bool) {
	for _, sig := range STTSignatures {
		if sig.Kind == kind {
			return sig, true
		}
	}
	return STTSignature{}, false
}

func ttsSignatureFor(kind TTSKind) (TTSSignature, bool) {
	for _, sig := range TTSSignatures {
		if sig.Kind == kind {
			return sig, true
		}
	}
	return TTSSignature{}, false
}

func parseSTTKind(s string) (STTKind, bool) {
	for _, sig := range STTSignatures {
		if string(sig.Kind) == s {
			return sig.Kind, true
		}
	}
	return STTUnknown, false
}

func parseTTSKind(s string) (TTSKind, bool) {
	for _, sig := range TTSSignatures {
		if string(sig.Kind) == s {
			return sig.Kind, true
		}
	}
	return TTSUnknown, false
}
