// Package tts synthesizes agent speech with Amazon Polly and plays it back.
package tts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/audio"
)

// synthesizer is the Polly API subset used by the client.
type synthesizer interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyClient synthesizes text and blocks until playback completes.
type PollyClient struct {
	api     synthesizer
	player  audio.Player
	voiceID string
	engine  string
	format  string
}

// NewPollyClient builds a client against the given AWS region. The player
// may be nil, in which case synthesized audio is discarded (headless mode).
func NewPollyClient(ctx context.Context, region, voiceID, engine, format string, player audio.Player) (*PollyClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("tts: load aws config: %w", err)
	}
	if player == nil {
		player = audio.NopPlayer{}
	}
	return &PollyClient{
		api:     polly.NewFromConfig(cfg),
		player:  player,
		voiceID: voiceID,
		engine:  engine,
		format:  format,
	}, nil
}

// Speak synthesizes the text and plays it, returning after playback finished.
func (c *PollyClient) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	start := time.Now()
	out, err := c.api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormat(c.format),
		VoiceId:      types.VoiceId(c.voiceID),
		Engine:       types.Engine(c.engine),
	})
	if err != nil {
		return fmt.Errorf("tts: synthesize: %w", err)
	}
	defer out.AudioStream.Close()
	log.Printf("tts: synthesized %d chars in %v", len(text), time.Since(start))

	if err := c.player.Play(ctx, out.AudioStream); err != nil {
		return fmt.Errorf("tts: playback: %w", err)
	}
	return nil
}
