// Package dial places the outbound phone call toward the practice via
// Twilio. The voice leg itself runs over the local audio devices; dialing is
// optional and skipped entirely when unconfigured.
package dial

import (
	"context"
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Config for the Twilio dialer.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Service dials the configured practice number.
type Service struct {
	config Config
	client *twilio.RestClient
}

// New constructs a Service, or nil when the config is incomplete so callers
// can treat dialing as disabled.
func New(config Config) *Service {
	if config.AccountSID == "" || config.AuthToken == "" || config.From == "" || config.To == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	return &Service{config: config, client: client}
}

// Dial rings the practice. It returns once the call is created; conversation
// audio flows through the local devices afterwards.
func (s *Service) Dial(_ context.Context, taskID string) error {
	params := &twilioApi.CreateCallParams{}
	params.SetTo(s.config.To)
	params.SetFrom(s.config.From)
	params.SetTwiml("<Response><Pause length=\"60\"/></Response>")

	resp, err := s.client.Api.CreateCall(params)
	if err != nil {
		return fmt.Errorf("dial: create call: %w", err)
	}
	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Printf("dial: task %s, call %s -> %s (sid=%s)", taskID, s.config.From, s.config.To, sid)
	return nil
}
