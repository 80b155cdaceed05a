// Package storage archives finished call transcripts to a Supabase storage
// bucket over its plain HTTP object API.
package storage

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SupabaseArchive uploads transcript objects to a Supabase bucket.
type SupabaseArchive struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	Client     *http.Client
}

// NewSupabaseArchive constructs an archive client, or nil when the
// configuration is incomplete so callers can treat archiving as disabled.
func NewSupabaseArchive(baseURL, serviceKey, bucket string) *SupabaseArchive {
	if baseURL == "" || serviceKey == "" {
		return nil
	}
	if bucket == "" {
		bucket = "call-protocols"
	}
	return &SupabaseArchive{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload writes one object, replacing any previous version under the same
// key so a re-run of a task overwrites its protocol instead of failing.
func (s *SupabaseArchive) Upload(objectKey string, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, s.objectURL(objectKey), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("archive: build request for %s: %w", objectKey, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", objectKey, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	default:
		return fmt.Errorf("archive: bucket %s rejected %s with status %d", s.Bucket, objectKey, resp.StatusCode)
	}
}

func (s *SupabaseArchive) objectURL(objectKey string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, objectKey)
}
