package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
)

type fakeSynth struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSynth) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(bytes.NewReader(f.audio))}, nil
}

type recordingPlayer struct {
	played []byte
	err    error
}

func (p *recordingPlayer) Play(_ context.Context, r io.Reader) error {
	if p.err != nil {
		return p.err
	}
	b, _ := io.ReadAll(r)
	p.played = append(p.played, b...)
	return nil
}

func TestSpeak_PlaysSynthesizedAudio(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	player := &recordingPlayer{}
	c := &PollyClient{api: synth, player: player, voiceID: "Vicki", engine: "neural", format: "mp3"}

	if err := c.Speak(context.Background(), "Guten Tag"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(player.played) != "mp3-bytes" {
		t.Fatalf("player got %q", player.played)
	}
}

func TestSpeak_EmptyTextIsNoop(t *testing.T) {
	synth := &fakeSynth{}
	c := &PollyClient{api: synth, player: &recordingPlayer{}}
	if err := c.Speak(context.Background(), ""); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if synth.calls != 0 {
		t.Fatalf("synthesize called for empty text")
	}
}

func TestSpeak_SynthesisError(t *testing.T) {
	c := &PollyClient{api: &fakeSynth{err: errors.New("throttled")}, player: &recordingPlayer{}}
	if err := c.Speak(context.Background(), "hallo"); err == nil {
		t.Fatalf("expected synthesis error")
	}
}

func TestSpeak_PlaybackError(t *testing.T) {
	c := &PollyClient{api: &fakeSynth{audio: []byte("x")}, player: &recordingPlayer{err: errors.New("no device")}}
	if err := c.Speak(context.Background(), "hallo"); err == nil {
		t.Fatalf("expected playback error")
	}
}
