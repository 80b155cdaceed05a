// Package transcribe turns a live audio stream into finalized utterances via
// a streaming speech-to-text websocket.
package transcribe

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// pollInterval is how often Capture re-checks the silence window.
const pollInterval = 50 * time.Millisecond

// Options configure a Stream.
type Options struct {
	// URL of the streaming transcription websocket.
	URL string
	// LanguageCode, e.g. "de-DE".
	LanguageCode string
	// BreakDelay is the silence window that ends an utterance.
	BreakDelay time.Duration
	// VoiceRMS is the amplitude threshold for voice activity detection.
	VoiceRMS float64
	// SampleRate of the incoming PCM, Hz.
	SampleRate int
}

func (o *Options) applyDefaults() {
	if o.LanguageCode == "" {
		o.LanguageCode = "de-DE"
	}
	if o.BreakDelay <= 0 {
		o.BreakDelay = 2 * time.Second
	}
	if o.VoiceRMS <= 0 {
		o.VoiceRMS = 500
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 16000
	}
}

// Stream is a websocket client for streaming transcription. Audio goes in as
// 16-bit little-endian PCM mono; finalized utterances come out of Capture,
// segmented by silence detection.
type Stream struct {
	opts      Options
	conn      *websocket.Conn
	audioData chan []byte
	stopCh    chan struct{}
	mu        sync.RWMutex
	connected bool

	// utterance accumulation
	accMu      sync.Mutex
	segments   []string
	voiceSeen  bool
	lastUpdate time.Time
	lastVoice  time.Time
}

// transcriptEvent mirrors the service's result messages.
type transcriptEvent struct {
	Transcript struct {
		Results []struct {
			IsPartial    bool `json:"IsPartial"`
			Alternatives []struct {
				Transcript string `json:"Transcript"`
			} `json:"Alternatives"`
		} `json:"Results"`
	} `json:"Transcript"`
}

// NewStream creates a Stream with the given options.
func NewStream(opts Options) *Stream {
	opts.applyDefaults()
	return &Stream{
		opts:      opts,
		audioData: make(chan []byte, 1000),
		stopCh:    make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the audio pump.
func (s *Stream) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if s.opts.URL == "" {
		return fmt.Errorf("transcribe: websocket url is empty")
	}

	u, err := url.Parse(s.opts.URL)
	if err != nil {
		return fmt.Errorf("transcribe: invalid url: %w", err)
	}
	q := u.Query()
	q.Set("language-code", s.opts.LanguageCode)
	q.Set("media-encoding", "pcm")
	q.Set("sample-rate", fmt.Sprintf("%d", s.opts.SampleRate))
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Printf("transcribe: connection failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("transcribe: connect: %w", err)
	}

	s.conn = conn
	s.connected = true
	now := time.Now()
	s.accMu.Lock()
	s.lastUpdate = now
	s.lastVoice = now
	s.accMu.Unlock()

	go s.handleMessages()
	go s.sendAudioData()

	log.Printf("transcribe: connected, language=%s", s.opts.LanguageCode)
	return nil
}

// SendPCM16KLE queues an audio buffer for transmission and feeds the voice
// activity detector.
func (s *Stream) SendPCM16KLE(pcm []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return fmt.Errorf("transcribe: not connected")
	}
	s.detectVoiceActivity(pcm)
	select {
	case s.audioData <- pcm:
	default:
		log.Println("transcribe: audio buffer full, dropping packet")
	}
	return nil
}

// Capture blocks until speech was detected and then BreakDelay of silence
// passed, and returns the utterance accumulated since the previous capture.
// Silence means both no transcript updates and no voice energy.
func (s *Stream) Capture(ctx context.Context) (string, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.stopCh:
			return "", fmt.Errorf("transcribe: stream closed")
		case <-ticker.C:
			if text, done := s.tryFinalize(); done {
				return text, nil
			}
		}
	}
}

// tryFinalize checks the silence window and, when crossed, consumes the
// accumulated utterance. The second return is true exactly once per
// utterance.
func (s *Stream) tryFinalize() (string, bool) {
	s.accMu.Lock()
	defer s.accMu.Unlock()
	if !s.voiceSeen && len(s.segments) == 0 {
		return "", false
	}
	now := time.Now()
	if now.Sub(s.lastUpdate) < s.opts.BreakDelay || now.Sub(s.lastVoice) < s.opts.BreakDelay {
		return "", false
	}
	text := strings.TrimSpace(strings.Join(s.segments, " "))
	s.segments = nil
	s.voiceSeen = false
	if text == "" {
		return "", false
	}
	return text, true
}

// detectVoiceActivity updates lastVoice when the PCM buffer carries energy
// above the RMS threshold. Expects 16-bit little-endian mono.
func (s *Stream) detectVoiceActivity(pcm []byte) {
	if len(pcm) < 2 {
		return
	}
	step := 1
	if len(pcm) > 3200 {
		step = 2
	}
	var sumSquares float64
	count := 0
	for i := 0; i+1 < len(pcm); i += 2 * step {
		v := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		sumSquares += float64(v) * float64(v)
		count++
	}
	if count == 0 {
		return
	}
	rms := math.Sqrt(sumSquares / float64(count))
	if rms >= s.opts.VoiceRMS {
		s.noteVoice(time.Now())
	}
}

func (s *Stream) noteVoice(at time.Time) {
	s.accMu.Lock()
	s.voiceSeen = true
	s.lastVoice = at
	s.accMu.Unlock()
}

// ingestTranscript records one finalized transcript segment.
func (s *Stream) ingestTranscript(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.accMu.Lock()
	s.segments = append(s.segments, strings.TrimSpace(text))
	s.lastUpdate = time.Now()
	s.accMu.Unlock()
}

func (s *Stream) handleMessages() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("transcribe: recovered in handleMessages: %v", r)
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		default:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				return
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("transcribe: read error: %v", err)
				return
			}
			s.processMessage(message)
		}
	}
}

func (s *Stream) processMessage(message []byte) {
	var ev transcriptEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		log.Printf("transcribe: unmarshal event: %v", err)
		return
	}
	for _, result := range ev.Transcript.Results {
		if result.IsPartial || len(result.Alternatives) == 0 {
			continue
		}
		s.ingestTranscript(result.Alternatives[0].Transcript)
	}
}

func (s *Stream) sendAudioData() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("transcribe: recovered in sendAudioData: %v", r)
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		case pcm, ok := <-s.audioData:
			if !ok {
				return
			}
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn != nil {
				if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
					log.Printf("transcribe: send error: %v", err)
					return
				}
			}
		}
	}
}

// Close terminates the connection and stops the pump goroutines.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	close(s.stopCh)
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.connected = false
	s.conn = nil
	log.Println("transcribe: connection closed")
	return nil
}
