// sona-models classifies a model directory and prints the detection result,
// exiting non-zero when no usable model is found.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sonalabs/sona-core/internal/modeldetect"
)

func main() {
	var (
		dir        string
		direction  string
		modelType  string
		preferInt8 bool
	)

	flag.StringVar(&dir, "dir", "", "Model directory to classify")
	flag.StringVar(&direction, "direction", "tts", "Detection direction: tts or stt")
	flag.StringVar(&modelType, "type", "auto", "Force a model kind instead of auto-detection")
	flag.BoolVar(&preferInt8, "prefer-int8", false, "Prefer quantized model files when both variants exist")
	flag.Parse()

	if dir == "" {
		fmt.Fprintln(os.Stderr, "usage: sona-models -dir <model-dir> [-direction tts|stt] [-type kind] [-prefer-int8]")
		os.Exit(2)
	}

	var (
		output any
		ok     bool
	)
	switch direction {
	case "stt":
		result := modeldetect.DetectSTT(dir, modeldetect.STTOptions{ModelType: modelType, PreferInt8: preferInt8})
		output, ok = result, result.OK
	case "tts":
		result := modeldetect.DetectTTS(dir, modelType)
		output, ok = result, result.OK
	default:
		fmt.Fprintf(os.Stderr, "unknown direction %q\n", direction)
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
