package modeldetect

import "fmt"

// STTOptions tune one STT detection run.
type STTOptions struct {
	// ModelType forces a kind when it is a known literal other than "auto".
	ModelType string
	// PreferInt8 selects quantized files when a role has both variants.
	PreferInt8 bool
}

// DetectSTT classifies an STT model directory. Failures are reported in the
// result, never panicked or returned, so the diagnostic path stays
// inspectable by callers.
func DetectSTT(dir string, opts STTOptions) STTResult {
	result := STTResult{SelectedKind: STTUnknown, TokensRequired: true}

	inv, err := Scan(dir)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, sig := range STTSignatures {
		if inv.satisfies(sig.Required) {
			result.DetectedModels = append(result.DetectedModels, DetectedModel{
				Type:     string(sig.Kind),
				ModelDir: dir,
			})
		}
	}

	kind := STTUnknown
	if forced(opts.ModelType) {
		parsed, ok := parseSTTKind(opts.ModelType)
		if !ok {
			result.Error = fmt.Sprintf("unsupported stt model type %q", opts.ModelType)
			return result
		}
		kind = parsed
	} else {
		if len(result.DetectedModels) == 0 {
			result.Error = fmt.Sprintf("no supported stt model found in %s", dir)
			return result
		}
		kind = STTKind(result.DetectedModels[0].Type)
	}

	paths, err := resolveSTT(kind, inv, opts.PreferInt8)
	if err != nil {
		result.SelectedKind = kind
		result.Error = err.Error()
		return result
	}

	result.OK = true
	result.SelectedKind = kind
	result.TokensRequired = kind != STTFunASRNano
	result.Paths = paths
	return result
}

func forced(modelType string) bool {
	return modelType != "" && modelType != "auto"
}
