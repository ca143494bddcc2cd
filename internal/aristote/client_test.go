package aristote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"enrichd/internal/aristote"
	"enrichd/internal/config"
	"enrichd/internal/logging"
	"enrichd/internal/testsupport"
)

func newTestClient(t *testing.T, handler http.Handler) (*aristote.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Aristote.BaseURL = server.URL
		cfg.Aristote.PortalBaseURL = server.URL + "/enrichments"
	})

	logger, err := logging.New(logging.Options{Level: "error", Format: "json", Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	client, err := aristote.New(cfg, logger)
	if err != nil {
		t.Fatalf("aristote.New: %v", err)
	}
	return client, server
}

func tokenHandler(counter *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if counter != nil {
			counter.Add(1)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "test-client" || pass != "test-secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	}
}

func TestSubmitPayload(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("POST /enrichments/url", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode submit payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "enr-42"})
	})

	client, _ := newTestClient(t, mux)
	id, err := client.Submit(context.Background(), aristote.SubmitParams{
		SourceURL:  "http://bridge.test/export/v1",
		WebhookURL: "http://bridge.test/webhook",
		Language:   "en",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "enr-42" {
		t.Fatalf("expected enr-42, got %s", id)
	}

	if captured["url"] != "http://bridge.test/export/v1" {
		t.Errorf("unexpected url: %v", captured["url"])
	}
	if captured["notificationWebhookUrl"] != "http://bridge.test/webhook" {
		t.Errorf("unexpected webhook url: %v", captured["notificationWebhookUrl"])
	}
	if captured["endUserIdentifier"] != "test" {
		t.Errorf("unexpected end user identifier: %v", captured["endUserIdentifier"])
	}

	params, ok := captured["enrichmentParameters"].(map[string]any)
	if !ok {
		t.Fatalf("missing enrichmentParameters: %v", captured)
	}
	if params["generateMetadata"] != false || params["generateQuiz"] != false {
		t.Errorf("metadata/quiz generation must be disabled: %v", params)
	}
	if params["language"] != "en" || params["translateTo"] != "fr" {
		t.Errorf("expected en->fr pairing, got %v", params)
	}
}

func TestSubmitAutoDetectOmitsLanguage(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("POST /enrichments/url", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode submit payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "enr-1"})
	})

	client, _ := newTestClient(t, mux)
	if _, err := client.Submit(context.Background(), aristote.SubmitParams{
		SourceURL:  "http://bridge.test/export/v1",
		WebhookURL: "http://bridge.test/webhook",
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	params := captured["enrichmentParameters"].(map[string]any)
	if _, present := params["language"]; present {
		t.Errorf("language must be omitted for auto-detect: %v", params)
	}
	if _, present := params["translateTo"]; present {
		t.Errorf("translateTo must be omitted for auto-detect: %v", params)
	}
}

func TestTokenCachedAcrossCalls(t *testing.T) {
	var tokenCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(&tokenCalls))
	mux.HandleFunc("GET /enrichments/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": r.PathValue("id"), "status": "SUCCESS"})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.GetEnrichment(ctx, "enr-1"); err != nil {
			t.Fatalf("GetEnrichment failed: %v", err)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("expected one token fetch, got %d", got)
	}
}

func TestRemoteErrorCarriesStatusCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("GET /enrichments/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.GetEnrichment(context.Background(), "enr-1")
	var remoteErr *aristote.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", remoteErr.StatusCode)
	}
}

func TestLatestVersionIDPicksNewest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("GET /enrichments/{id}/versions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"id": "v-old"}, {"id": "v-new"}},
		})
	})

	client, _ := newTestClient(t, mux)
	id, err := client.LatestVersionID(context.Background(), "enr-1")
	if err != nil {
		t.Fatalf("LatestVersionID failed: %v", err)
	}
	if id != "v-new" {
		t.Fatalf("expected v-new, got %s", id)
	}
}

func TestDownloadTranscriptLanguageParam(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("GET /enrichments/{id}/versions/{version}/download_transcript", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "fr" {
			t.Errorf("expected language=fr, got %q", got)
		}
		_, _ = io.WriteString(w, "1\n00:00:00,000 --> 00:00:01,000\nBonjour\n")
	})

	client, _ := newTestClient(t, mux)
	text, err := client.DownloadTranscript(context.Background(), "enr-1", "v-1", "fr")
	if err != nil {
		t.Fatalf("DownloadTranscript failed: %v", err)
	}
	if text == "" {
		t.Fatal("expected transcript text")
	}
}

func TestRequestNewVersionQuiz(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("POST /enrichments/{id}/new_ai_version", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux)
	err := client.RequestNewVersion(context.Background(), "enr-1", aristote.NewVersionParams{
		Language:     "en",
		GenerateQuiz: true,
	})
	if err != nil {
		t.Fatalf("RequestNewVersion failed: %v", err)
	}

	params := captured["enrichmentParameters"].(map[string]any)
	if params["generateQuiz"] != true {
		t.Errorf("expected quiz generation requested: %v", params)
	}
	if _, present := params["translateTo"]; present {
		t.Errorf("quiz pass must not request a translation: %v", params)
	}
	if captured["notificationWebhookUrl"] != "http://bridge.test/webhook" {
		t.Errorf("follow-up must re-send the webhook url: %v", captured["notificationWebhookUrl"])
	}
	if captured["endUserIdentifier"] != "test" {
		t.Errorf("follow-up must re-send the end user identifier: %v", captured["endUserIdentifier"])
	}
}

func TestRequestNewVersionTranslationPayload(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(nil))
	mux.HandleFunc("POST /enrichments/{id}/new_ai_version", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux)
	err := client.RequestNewVersion(context.Background(), "enr-1", aristote.NewVersionParams{
		Language: "en",
	})
	if err != nil {
		t.Fatalf("RequestNewVersion failed: %v", err)
	}

	params := captured["enrichmentParameters"].(map[string]any)
	if params["language"] != "en" || params["translateTo"] != "fr" {
		t.Errorf("expected en->fr pairing, got %v", params)
	}
	// Without the webhook URL the provider cannot notify on the follow-up and
	// the row would sit in TRANSCRIBED until a manual stuck pass.
	if captured["notificationWebhookUrl"] != "http://bridge.test/webhook" {
		t.Errorf("follow-up must re-send the webhook url: %v", captured["notificationWebhookUrl"])
	}
	if captured["endUserIdentifier"] != "test" {
		t.Errorf("follow-up must re-send the end user identifier: %v", captured["endUserIdentifier"])
	}
}
