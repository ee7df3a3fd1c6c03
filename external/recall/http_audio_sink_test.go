package recall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendAudio_PostsEncodedPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody outputAudioRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewHTTPAudioSink(server.URL, "api-key")
	if err := sink.SendAudio(context.Background(), "bot-1", "bXAzZGF0YQ=="); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/bot/bot-1/output_audio/" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Token api-key" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotBody.Kind != "mp3" || gotBody.B64 != "bXAzZGF0YQ==" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

func TestSendAudio_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewHTTPAudioSink(server.URL, "")
	if err := sink.SendAudio(context.Background(), "bot-1", "data"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSendAudio_NoopWithoutBaseURL(t *testing.T) {
	sink := NewHTTPAudioSink("", "")
	if err := sink.SendAudio(context.Background(), "bot-1", "data"); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}
