package transcribe

import (
	"context"
	"encoding/binary"
	"testing"
	"time"
)

// pcmTone builds a PCM buffer with constant amplitude samples.
func pcmTone(amplitude int16, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return buf
}

func TestTryFinalize_SilenceBoundary(t *testing.T) {
	s := NewStream(Options{BreakDelay: 2 * time.Second})

	// Voice activity plus a finalized segment, then 2.1s of silence.
	s.ingestTranscript("Guten Tag, Praxis Dr. Weber")
	s.noteVoice(time.Now())
	s.accMu.Lock()
	s.lastUpdate = time.Now().Add(-2100 * time.Millisecond)
	s.lastVoice = time.Now().Add(-2100 * time.Millisecond)
	s.accMu.Unlock()

	text, done := s.tryFinalize()
	if !done {
		t.Fatalf("expected utterance after 2.1s silence with 2.0s threshold")
	}
	if text != "Guten Tag, Praxis Dr. Weber" {
		t.Fatalf("unexpected utterance: %q", text)
	}

	// Exactly once: a second check without new speech yields nothing.
	if _, done := s.tryFinalize(); done {
		t.Fatalf("utterance delivered twice")
	}
}

func TestTryFinalize_WaitsWhileVoiceActive(t *testing.T) {
	s := NewStream(Options{BreakDelay: 2 * time.Second})
	s.ingestTranscript("einen Moment bitte")
	s.accMu.Lock()
	s.lastUpdate = time.Now().Add(-3 * time.Second)
	s.accMu.Unlock()
	// Voice energy was seen just now; the turn is not over yet.
	s.noteVoice(time.Now())

	if _, done := s.tryFinalize(); done {
		t.Fatalf("finalized while voice still active")
	}
}

func TestTryFinalize_NothingBeforeSpeech(t *testing.T) {
	s := NewStream(Options{BreakDelay: 50 * time.Millisecond})
	if _, done := s.tryFinalize(); done {
		t.Fatalf("finalized without any speech")
	}
}

func TestCapture_ReturnsAccumulatedSegments(t *testing.T) {
	s := NewStream(Options{BreakDelay: 80 * time.Millisecond})
	s.ingestTranscript("wir hätten am Dienstag")
	s.ingestTranscript("um neun Uhr dreißig einen Termin frei")
	s.noteVoice(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	text, err := s.Capture(ctx)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := "wir hätten am Dienstag um neun Uhr dreißig einen Termin frei"
	if text != want {
		t.Fatalf("got %q want %q", text, want)
	}
}

func TestCapture_CancelledContext(t *testing.T) {
	s := NewStream(Options{BreakDelay: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Capture(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestDetectVoiceActivity_Threshold(t *testing.T) {
	s := NewStream(Options{VoiceRMS: 500})
	s.accMu.Lock()
	s.voiceSeen = false
	s.accMu.Unlock()

	// Quiet buffer stays below threshold.
	s.detectVoiceActivity(pcmTone(100, 320))
	s.accMu.Lock()
	seen := s.voiceSeen
	s.accMu.Unlock()
	if seen {
		t.Fatalf("quiet buffer marked as voice")
	}

	// Loud buffer crosses it.
	s.detectVoiceActivity(pcmTone(2000, 320))
	s.accMu.Lock()
	seen = s.voiceSeen
	s.accMu.Unlock()
	if !seen {
		t.Fatalf("loud buffer not marked as voice")
	}
}

func TestProcessMessage_SkipsPartials(t *testing.T) {
	s := NewStream(Options{})
	s.processMessage([]byte(`{"Transcript":{"Results":[
		{"IsPartial":true,"Alternatives":[{"Transcript":"Guten"}]},
		{"IsPartial":false,"Alternatives":[{"Transcript":"Guten Tag"}]}
	]}}`))
	s.accMu.Lock()
	defer s.accMu.Unlock()
	if len(s.segments) != 1 || s.segments[0] != "Guten Tag" {
		t.Fatalf("unexpected segments: %v", s.segments)
	}
}

func TestConnect_RequiresURL(t *testing.T) {
	s := NewStream(Options{})
	if err := s.Connect(); err == nil {
		t.Fatalf("expected error with empty url")
	}
}
