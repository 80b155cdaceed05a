package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration for both the intake server and the call agent.
type Config struct {
	HTTPAddress string
	DatabaseURL string

	// LLM endpoint (API gateway in front of the model).
	LLMEndpoint string
	LLMModelID  string

	// Streaming speech-to-text.
	TranscribeWSURL string
	LanguageCode    string
	BreakDelay      time.Duration
	VoiceRMS        float64

	// Speech synthesis.
	AWSRegion    string
	PollyVoiceID string
	PollyEngine  string
	PollyFormat  string

	// Poller and orchestrator.
	PollInterval time.Duration
	MaxTurns     int
	StaleClaim   time.Duration

	// Intake API base URL used by the schedule_call_task tool.
	IntakeURL string

	// Optional outbound dial.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	PracticeNumber   string

	// Optional transcript archive.
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("Warning: DATABASE_URL not set - falling back to in-memory task store")
	}

	llmEndpoint := os.Getenv("LLM_ENDPOINT")
	if llmEndpoint == "" {
		log.Println("Warning: LLM_ENDPOINT not set - the call agent will not work")
	}
	llmModel := os.Getenv("LLM_MODEL_ID")
	if llmModel == "" {
		llmModel = "anthropic.claude-3-5-haiku-20241022-v1:0"
	}

	wsURL := os.Getenv("TRANSCRIBE_WS_URL")
	if wsURL == "" {
		log.Println("Warning: TRANSCRIBE_WS_URL not set - transcription will not work")
	}
	lang := os.Getenv("LANGUAGE_CODE")
	if lang == "" {
		lang = "de-DE"
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}
	voiceID := os.Getenv("POLLY_VOICE_ID")
	if voiceID == "" {
		voiceID = "Vicki"
	}
	engine := os.Getenv("POLLY_ENGINE")
	if engine == "" {
		engine = "neural"
	}
	format := os.Getenv("POLLY_OUTPUT_FORMAT")
	if format == "" {
		format = "mp3"
	}

	intakeURL := os.Getenv("INTAKE_URL")
	if intakeURL == "" {
		intakeURL = "http://localhost:8080"
	}

	cfg := Config{
		HTTPAddress:      addr,
		DatabaseURL:      dbURL,
		LLMEndpoint:      llmEndpoint,
		LLMModelID:       llmModel,
		TranscribeWSURL:  wsURL,
		LanguageCode:     lang,
		BreakDelay:       durationEnv("BREAK_DELAY_SECONDS", 2.0),
		VoiceRMS:         floatEnv("VOICE_RMS_THRESHOLD", 500),
		AWSRegion:        region,
		PollyVoiceID:     voiceID,
		PollyEngine:      engine,
		PollyFormat:      format,
		PollInterval:     durationEnv("POLL_INTERVAL_SECONDS", 5.0),
		MaxTurns:         intEnv("MAX_CONVERSATION_TURNS", 30),
		StaleClaim:       time.Duration(intEnv("STALE_CLAIM_MINUTES", 0)) * time.Minute,
		IntakeURL:        intakeURL,
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		PracticeNumber:   os.Getenv("PRACTICE_PHONE_NUMBER"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:   os.Getenv("SUPABASE_BUCKET"),
	}

	log.Printf("config: HTTP_ADDRESS=%s LANGUAGE_CODE=%s MODEL=%s", cfg.HTTPAddress, cfg.LanguageCode, cfg.LLMModelID)
	return cfg
}

func durationEnv(key string, defSeconds float64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return time.Duration(f * float64(time.Second))
		}
		log.Printf("Warning: invalid %s=%q - using default", key, v)
	}
	return time.Duration(defSeconds * float64(time.Second))
}

func floatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid %s=%q - using default", key, v)
	}
	return def
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s=%q - using default", key, v)
	}
	return def
}
