package synth

import (
	"fmt"

	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/modeldetect"
)

func newBackend(cfg config.SynthConfig, opts InitOptions, detection modeldetect.TTSResult) (Backend, error) {
	switch cfg.Mode {
	case "mock":
		return newMockBackend(cfg, detection), nil
	case "exec":
		return newExecBackend(cfg, opts, detection)
	default:
		return nil, fmt.Errorf("unknown synth mode %q", cfg.Mode)
	}
}
