package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
)

const weatherNotAvailable = `{"weather":"not available"}`

// Weather answers get_current_weather via the wttr.in JSON interface. Any
// lookup failure degrades to a "not available" marker instead of an error,
// so the conversation continues.
type Weather struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewWeather constructs the weather tool with the public wttr.in endpoint.
func NewWeather() *Weather {
	return &Weather{
		BaseURL:    "https://wttr.in",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Weather) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        "get_current_weather",
		Description: "Liefert das aktuelle Wetter für einen Ort.",
		InputSchema: llm.ToolInputSchema{
			Type: "object",
			Properties: map[string]llm.ToolProperty{
				"location": {Type: "string", Description: "Der Ort, für den das Wetter abgefragt werden soll, z.B. 'Stuttgart'."},
			},
			Required: []string{"location"},
		},
	}
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

func (w *Weather) Invoke(ctx context.Context, args map[string]string) (string, error) {
	location := strings.TrimSpace(args["location"])
	if location == "" {
		return weatherNotAvailable, nil
	}

	reqURL := fmt.Sprintf("%s/%s?format=j1", strings.TrimRight(w.BaseURL, "/"), url.PathEscape(location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return weatherNotAvailable, nil
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return weatherNotAvailable, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return weatherNotAvailable, nil
	}

	var parsed wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return weatherNotAvailable, nil
	}
	if len(parsed.CurrentCondition) == 0 || len(parsed.CurrentCondition[0].WeatherDesc) == 0 {
		return weatherNotAvailable, nil
	}

	cur := parsed.CurrentCondition[0]
	out, _ := json.Marshal(map[string]string{
		"location":      location,
		"temperature_c": cur.TempC,
		"condition":     cur.WeatherDesc[0].Value,
	})
	return string(out), nil
}
