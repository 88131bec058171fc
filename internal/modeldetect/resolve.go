package modeldetect

import "fmt"

// resolveSTT fills only the slots the selected kind needs. Every populated
// slot comes from a scanned file, so a populated path always exists on disk.
func resolveSTT(kind STTKind, inv *Inventory, preferInt8 bool) (STTPaths, error) {
	var paths STTPaths

	require := func(role Role) (string, error) {
		path, ok := inv.Resolve(role, preferInt8)
		if !ok {
			return "", fmt.Errorf("missing required file for role %q (kind %s)", role, kind)
		}
		return path, nil
	}

	var err error
	switch kind {
	case STTTransducer:
		if paths.Encoder, err = require(RoleEncoder); err != nil {
			return STTPaths{}, err
		}
		if paths.Decoder, err = require(RoleDecoder); err != nil {
			return STTPaths{}, err
		}
		if paths.Joiner, err = require(RoleJoiner); err != nil {
			return STTPaths{}, err
		}
	case STTParaformer:
		if paths.ParaformerModel, err = require(RoleParaformer); err != nil {
			return STTPaths{}, err
		}
	case STTNemoCTC:
		if paths.CTCModel, err = require(RoleNemoCTC); err != nil {
			return STTPaths{}, err
		}
	case STTWenetCTC:
		if paths.CTCModel, err = require(RoleWenetCTC); err != nil {
			return STTPaths{}, err
		}
	case STTSenseVoice:
		if paths.CTCModel, err = require(RoleSenseVoice); err != nil {
			return STTPaths{}, err
		}
	case STTZipformerCTC:
		if paths.CTCModel, err = require(RoleZipformerCTC); err != nil {
			return STTPaths{}, err
		}
	case STTWhisper:
		if paths.WhisperEncoder, err = require(RoleEncoder); err != nil {
			return STTPaths{}, err
		}
		if paths.WhisperDecoder, err = require(RoleDecoder); err != nil {
			return STTPaths{}, err
		}
	case STTFunASRNano:
		if paths.FunASREncoderAdaptor, err = require(RoleFunASREncoderAdaptor); err != nil {
			return STTPaths{}, err
		}
		if paths.FunASRLLM, err = require(RoleFunASRLLM); err != nil {
			return STTPaths{}, err
		}
		if paths.FunASREmbedding, err = require(RoleFunASREmbedding); err != nil {
			return STTPaths{}, err
		}
		if paths.FunASRTokenizer, err = require(RoleFunASRTokenizer); err != nil {
			return STTPaths{}, err
		}
		// funasr-nano bundles its own tokenizer; tokens.txt is not part of
		// its signature.
		return paths, nil
	default:
		return STTPaths{}, fmt.Errorf("cannot resolve paths for kind %q", kind)
	}

	if paths.Tokens, err = require(RoleTokens); err != nil {
		return STTPaths{}, err
	}
	return paths, nil
}

func resolveTTS(kind TTSKind, inv *Inventory) (TTSPaths, error) {
	var paths TTSPaths

	require := func(role Role) (string, error) {
		path, ok := inv.Resolve(role, false)
		if !ok {
			return "", fmt.Errorf("missing required file for role %q (kind %s)", role, kind)
		}
		return path, nil
	}
	optional := func(role Role) string {
		path, _ := inv.Resolve(role, false)
		return path
	}

	var err error
	switch kind {
	case TTSVits:
		if paths.Model, err = require(RoleVitsModel); err != nil {
			return TTSPaths{}, err
		}
		paths.Lexicon = optional(RoleLexicon)
		paths.DataDir = optional(RoleDataDir)
	case TTSMatcha:
		if paths.AcousticModel, err = require(RoleAcousticModel); err != nil {
			return TTSPaths{}, err
		}
		if paths.Vocoder, err = require(RoleVocoder); err != nil {
			return TTSPaths{}, err
		}
		paths.DataDir = optional(RoleDataDir)
	case TTSKokoro:
		if paths.Model, err = require(RoleKokoroModel); err != nil {
			return TTSPaths{}, err
		}
		if paths.Voices, err = require(RoleVoices); err != nil {
			return TTSPaths{}, err
		}
		paths.Lexicon = optional(RoleLexicon)
		paths.DataDir = optional(RoleDataDir)
	case TTSKitten:
		if paths.Model, err = require(RoleKittenModel); err != nil {
			return TTSPaths{}, err
		}
		if paths.Voices, err = require(RoleVoices); err != nil {
			return TTSPaths{}, err
		}
		paths.DataDir = optional(RoleDataDir)
	case TTSZipvoice:
		if paths.Encoder, err = require(RoleEncoder); err != nil {
			return TTSPaths{}, err
		}
		if paths.Decoder, err = require(RoleDecoder); err != nil {
			return TTSPaths{}, err
		}
	default:
		return TTSPaths{}, fmt.Errorf("cannot resolve paths for kind %q", kind)
	}

	if paths.Tokens, err = require(RoleTokens); err != nil {
		return TTSPaths{}, err
	}
	return paths, nil
}
