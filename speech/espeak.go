package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const (
	espeakBaseRate  = 175
	espeakBasePitch = 50
)

// Espeak drives the espeak-ng command line synthesizer.
type Espeak struct {
	binary string
}

// NewEspeak looks up binary on PATH.
func NewEspeak(binary string) (*Espeak, error) {
	if binary == "" {
		binary = "espeak-ng"
	}
	p, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, binary, err)
	}
	return &Espeak{binary: p}, nil
}

func (e *Espeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return parseVoices(out), nil
}

func (e *Espeak) Speak(ctx context.Context, text string, voice *Voice, opts Options) error {
	cmd := exec.CommandContext(ctx, e.binary, espeakArgs(text, voice, opts)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func espeakArgs(text string, voice *Voice, opts Options) []string {
	if opts.Rate <= 0 {
		opts.Rate = DefaultOptions.Rate
	}
	args := []string{}
	if voice != nil && voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}
	pitch := int(math.Round(espeakBasePitch * opts.Pitch))
	if pitch > 99 {
		pitch = 99
	}
	if pitch < 0 {
		pitch = 0
	}
	args = append(args,
		"-s", strconv.Itoa(int(math.Round(espeakBaseRate*opts.Rate))),
		"-p", strconv.Itoa(pitch),
		"--", text,
	)
	return args
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-gb           --/M      English_(Great_Britain) gmw/en
func parseVoices(out []byte) []Voice {
	voices := []Voice{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{
			ID:   fields[1],
			Lang: fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
		})
	}
	return voices
}
