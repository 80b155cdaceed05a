// Package audio provides the local audio devices: blocking playback of
// synthesized speech and microphone capture, both via external binaries so
// the build needs no CGO audio bindings.
package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Player consumes an encoded audio stream and blocks until playback is done.
type Player interface {
	Play(ctx context.Context, audio io.Reader) error
}

// NopPlayer discards audio; used in tests and headless runs.
type NopPlayer struct{}

func (NopPlayer) Play(_ context.Context, r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

// ExecPlayer pipes audio into a player binary (default ffplay).
type ExecPlayer struct {
	// Command and args; the audio stream is written to stdin.
	Command string
	Args    []string
}

// NewExecPlayer returns a Player backed by ffplay.
func NewExecPlayer() *ExecPlayer {
	return &ExecPlayer{
		Command: "ffplay",
		Args:    []string{"-autoexit", "-nodisp", "-loglevel", "quiet", "-"},
	}
}

func (p *ExecPlayer) Play(ctx context.Context, audio io.Reader) error {
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = audio
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio: %s: %w", p.Command, err)
	}
	return nil
}

// Source delivers raw PCM buffers from an input device.
type Source interface {
	io.ReadCloser
}

// Mic captures 16 kHz s16le mono PCM via arecord.
type Mic struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// OpenMic starts the capture process.
func OpenMic(ctx context.Context) (*Mic, error) {
	cmd := exec.CommandContext(ctx, "arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("audio: mic pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audio: start arecord: %w", err)
	}
	return &Mic{cmd: cmd, stdout: stdout}, nil
}

func (m *Mic) Read(p []byte) (int, error) { return m.stdout.Read(p) }

func (m *Mic) Close() error {
	_ = m.stdout.Close()
	if m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
	}
	return m.cmd.Wait()
}
