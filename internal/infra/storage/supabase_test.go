package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadSendsObject(t *testing.T) {
	var gotPath, gotAuth, gotType, gotUpsert string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	archive := NewSupabaseArchive(srv.URL, "service-key", "call-protocols")
	if err := archive.Upload("task-1.json", "application/json", []byte(`{"messages":[]}`)); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if gotPath != "/storage/v1/object/call-protocols/task-1.json" {
		t.Errorf("unexpected upload path %q", gotPath)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Errorf("unexpected content type %q", gotType)
	}
	if gotUpsert != "true" {
		t.Errorf("expected upsert header, got %q", gotUpsert)
	}
	if string(gotBody) != `{"messages":[]}` {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestUploadRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	archive := NewSupabaseArchive(srv.URL, "service-key", "")
	if err := archive.Upload("task-1.json", "application/json", nil); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestNewSupabaseArchiveRequiresConfig(t *testing.T) {
	if NewSupabaseArchive("", "key", "bucket") != nil {
		t.Error("expected nil archive without base URL")
	}
	if NewSupabaseArchive("https://example.supabase.co", "", "bucket") != nil {
		t.Error("expected nil archive without service key")
	}
}
