package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("LANGUAGE_CODE", "")
	os.Setenv("LLM_MODEL_ID", "")
	os.Setenv("BREAK_DELAY_SECONDS", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.LanguageCode != "de-DE" {
		t.Fatalf("expected default language code, got %q", cfg.LanguageCode)
	}
	if cfg.LLMModelID == "" {
		t.Fatalf("expected default model id")
	}
	if cfg.BreakDelay != 2*time.Second {
		t.Fatalf("expected 2s break delay, got %v", cfg.BreakDelay)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval, got %v", cfg.PollInterval)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("BREAK_DELAY_SECONDS", "1.5")
	os.Setenv("MAX_CONVERSATION_TURNS", "7")
	defer os.Unsetenv("BREAK_DELAY_SECONDS")
	defer os.Unsetenv("MAX_CONVERSATION_TURNS")
	cfg := Load()
	if cfg.BreakDelay != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s break delay, got %v", cfg.BreakDelay)
	}
	if cfg.MaxTurns != 7 {
		t.Fatalf("expected 7 max turns, got %d", cfg.MaxTurns)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Setenv("BREAK_DELAY_SECONDS", "soon")
	os.Setenv("VOICE_RMS_THRESHOLD", "loud")
	defer os.Unsetenv("BREAK_DELAY_SECONDS")
	defer os.Unsetenv("VOICE_RMS_THRESHOLD")
	cfg := Load()
	if cfg.BreakDelay != 2*time.Second {
		t.Fatalf("expected default break delay, got %v", cfg.BreakDelay)
	}
	if cfg.VoiceRMS != 500 {
		t.Fatalf("expected default rms threshold, got %v", cfg.VoiceRMS)
	}
}
