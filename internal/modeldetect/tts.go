package modeldetect

import "fmt"

// DetectTTS classifies a TTS model directory. modelType "auto" (or empty)
// walks the signature list; any other known literal forces that kind and
// lets path resolution report what is missing.
func DetectTTS(dir string, modelType string) TTSResult {
	result := TTSResult{SelectedKind: TTSUnknown}

	inv, err := Scan(dir)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, sig := range TTSSignatures {
		if inv.satisfies(sig.Required) {
			result.DetectedModels = append(result.DetectedModels, DetectedModel{
				Type:     string(sig.Kind),
				ModelDir: dir,
			})
		}
	}

	kind := TTSUnknown
	if forced(modelType) {
		parsed, ok := parseTTSKind(modelType)
		if !ok {
			result.Error = fmt.Sprintf("unsupported tts model type %q", modelType)
			return result
		}
		kind = parsed
	} else {
		if len(result.DetectedModels) == 0 {
			result.Error = fmt.Sprintf("no supported tts model found in %s", dir)
			return result
		}
		kind = TTSKind(result.DetectedModels[0].Type)
	}

	paths, err := resolveTTS(kind, inv)
	if err != nil {
		result.SelectedKind = kind
		result.Error = err.Error()
		return result
	}

	result.OK = true
	result.SelectedKind = kind
	result.Paths = paths
	return result
}
