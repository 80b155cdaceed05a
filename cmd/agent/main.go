package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/agent"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/audio"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/config"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/dial"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/infra/storage"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/intake"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/store"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/tools"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/transcribe"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStore(cfg)

	registry := tools.NewRegistry(
		tools.NewWeather(),
		&tools.ScheduleCall{Client: intake.NewClient(cfg.IntakeURL)},
	)
	catalog := registry.Catalog()
	newSession := func() agent.Session {
		return llm.NewSession(cfg.LLMEndpoint, cfg.LLMModelID, catalog)
	}

	stream := transcribe.NewStream(transcribe.Options{
		URL:          cfg.TranscribeWSURL,
		LanguageCode: cfg.LanguageCode,
		BreakDelay:   cfg.BreakDelay,
		VoiceRMS:     cfg.VoiceRMS,
	})
	if err := stream.Connect(); err != nil {
		log.Fatalf("transcription: %v", err)
	}
	defer stream.Close()
	go pumpMicrophone(ctx, stream)

	speaker, err := tts.NewPollyClient(ctx, cfg.AWSRegion, cfg.PollyVoiceID, cfg.PollyEngine, cfg.PollyFormat, audio.NewExecPlayer())
	if err != nil {
		log.Fatalf("speech synthesis: %v", err)
	}

	orch := &agent.Orchestrator{
		NewSession:  newSession,
		Tools:       registry,
		Transcriber: stream,
		Speaker:     speaker,
		Store:       st,
		MaxTurns:    cfg.MaxTurns,
	}
	if d := dial.New(dial.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFromNumber,
		To:         cfg.PracticeNumber,
	}); d != nil {
		orch.Dialer = d
		log.Println("outbound dialing enabled")
	}
	if a := storage.NewSupabaseArchive(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket); a != nil {
		orch.Archive = a
		log.Println("transcript archive enabled")
	}

	poller := agent.NewPoller(st, orch, cfg.PollInterval)
	poller.StaleAfter = cfg.StaleClaim

	log.Println("call agent started")
	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("poller: %v", err)
	}
	log.Println("call agent stopped")
}

// pumpMicrophone feeds raw microphone PCM into the transcription stream until
// the context is cancelled. 3200 bytes is 100ms of 16 kHz s16le mono audio.
func pumpMicrophone(ctx context.Context, stream *transcribe.Stream) {
	mic, err := audio.OpenMic(ctx)
	if err != nil {
		log.Printf("Warning: microphone unavailable: %v", err)
		return
	}
	defer mic.Close()

	buf := make([]byte, 3200)
	for ctx.Err() == nil {
		n, err := mic.Read(buf)
		if n > 0 {
			if err := stream.SendPCM16KLE(buf[:n]); err != nil {
				log.Printf("transcription send: %v", err)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("microphone read: %v", err)
			}
			return
		}
	}
}

func openStore(cfg config.Config) store.Store {
	if cfg.DatabaseURL == "" {
		return store.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database pool: %v", err)
	}
	pg, err := store.NewPostgres(pool)
	if err != nil {
		log.Fatalf("database store: %v", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("database schema: %v", err)
	}
	log.Println("connected to Postgres task store")
	return pg
}
