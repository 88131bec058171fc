package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"

	"github.com/mattn/go-shellwords"
	"github.com/sonalabs/sona-core/internal/config"
	"github.com/sonalabs/sona-core/internal/modeldetect"
)

// execBackend shells out to an external inference runner. The runner reads
// one JSON request on stdin and answers with newline-delimited JSON: a probe
// request yields a single info line, a generate request yields one line per
// audio chunk with little-endian float32 PCM in pcm_base64.
type execBackend struct {
	cmd         []string
	cfg         config.SynthConfig
	opts        InitOptions
	paths       modeldetect.TTSPaths
	kind        modeldetect.TTSKind
	sampleRate  int
	numSpeakers int
}

type execModelRef struct {
	Kind          string `json:"kind"`
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

type execRequest struct {
	Op          string       `json:"op"` // probe, generate
	Text        string       `json:"text,omitempty"`
	SpeakerID   int          `json:"speaker_id"`
	Speed       float32      `json:"speed,omitempty"`
	NumThreads  int          `json:"num_threads"`
	Debug       bool         `json:"debug"`
	NoiseScale  *float64     `json:"noise_scale,omitempty"`
	NoiseScaleW *float64     `json:"noise_scale_w,omitempty"`
	LengthScale *float64     `json:"length_scale,omitempty"`
	Model       execModelRef `json:"model"`
}

type execResponse struct {
	SampleRate  int     `json:"sample_rate,omitempty"`
	NumSpeakers int     `json:"num_speakers,omitempty"`
	PCMBase64   string  `json:"pcm_base64,omitempty"`
	Progress    float32 `json:"progress"`
	Final       bool    `json:"final"`
	Error       string  `json:"error,omitempty"`
}

func newExecBackend(cfg config.SynthConfig, opts InitOptions, detection modeldetect.TTSResult) (*execBackend, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse synth command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("synth command empty")
	}

	b := &execBackend{
		cmd:   args,
		cfg:   cfg,
		opts:  opts,
		paths: detection.Paths,
		kind:  detection.SelectedKind,
	}
	if err := b.probe(); err != nil {
		return nil, err
	}
	return b, nil
}

// probe asks the runner to load the model and report its native sample rate
// and speaker count before any generation happens.
func (b *execBackend) probe() error {
	payload, err := json.Marshal(b.request("probe", Request{}))
	if err != nil {
		return err
	}

	cmd := exec.Command(b.cmd[0], b.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("probe synth runner: %w: %s", err, stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return fmt.Errorf("decode probe response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("synth runner rejected model: %s", resp.Error)
	}
	if resp.SampleRate <= 0 || resp.NumSpeakers <= 0 {
		return fmt.Errorf("probe response missing sample rate or speaker count")
	}
	b.sampleRate = resp.SampleRate
	b.numSpeakers = resp.NumSpeakers
	return nil
}

func (b *execBackend) request(op string, req Request) execRequest {
	return execRequest{
		Op:          op,
		Text:        req.Text,
		SpeakerID:   req.SpeakerID,
		Speed:       req.Speed,
		NumThreads:  b.opts.NumThreads,
		Debug:       b.opts.Debug,
		NoiseScale:  b.opts.NoiseScale,
		NoiseScaleW: b.opts.NoiseScaleW,
		LengthScale: b.opts.LengthScale,
		Model: execModelRef{
			Kind:          string(b.kind),
			Model:         b.paths.Model,
			Tokens:        b.paths.Tokens,
			Lexicon:       b.paths.Lexicon,
			DataDir:       b.paths.DataDir,
			Voices:        b.paths.Voices,
			AcousticModel: b.paths.AcousticModel,
			Vocoder:       b.paths.Vocoder,
			Encoder:       b.paths.Encoder,
			Decoder:       b.paths.Decoder,
		},
	}
}

func (b *execBackend) Generate(ctx context.Context, req Request, emit EmitFunc) error {
	payload, err := json.Marshal(b.request("generate", req))
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, b.cmd[0], b.cmd[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start synth runner: %w", err)
	}

	if _, err := stdin.Write(payload); err != nil {
		_ = cmd.Wait()
		return err
	}
	stdin.Close()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<24)
	stopped := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return fmt.Errorf("decode synth chunk: %w", err)
		}
		if resp.Error != "" {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return fmt.Errorf("synth runner: %s", resp.Error)
		}
		samples, err := decodePCM(resp.PCMBase64)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return err
		}
		if !emit(samples, resp.Progress) {
			stopped = true
			break
		}
		if resp.Final {
			break
		}
	}

	if stopped {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return err
	}
	return cmd.Wait()
}

func (b *execBackend) SampleRate() int  { return b.sampleRate }
func (b *execBackend) NumSpeakers() int { return b.numSpeakers }
func (b *execBackend) Close() error     { return nil }

func decodePCM(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("pcm payload not float32 aligned")
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}
