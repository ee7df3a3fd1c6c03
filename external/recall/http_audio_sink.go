package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Uto-inc/ai-meeting-proxy/internal/outbound"
)

// HTTPAudioSink posts bot speech to the meeting-bot provider's
// output_audio endpoint.
type HTTPAudioSink struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPAudioSink(baseURL, apiKey string) outbound.AudioSink {
	return &HTTPAudioSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type outputAudioRequest struct {
	Kind string `json:"kind"`
	B64  string `json:"b64_data"`
}

func (s *HTTPAudioSink) SendAudio(ctx context.Context, botID, b64MP3 string) error {
	if s.baseURL == "" {
		return nil
	}

	body, err := json.Marshal(outputAudioRequest{Kind: "mp3", B64: b64MP3})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot/%s/output_audio/", s.baseURL, botID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Token "+s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("output_audio returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
