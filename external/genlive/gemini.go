package genlive

import (
	"context"
	"fmt"

	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"google.golang.org/genai"
)

const pcmInputMIMEType = "audio/pcm;rate=16000"

type GeminiConfig struct {
	APIKey       string
	Model        string
	VoiceName    string
	LanguageCode string
	Temperature  float64
}

// GeminiClient dials Gemini Live API streams. One client serves all bots;
// each Connect call yields an independent stream.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (live.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (c *GeminiClient) Connect(ctx context.Context, connectCfg live.ConnectConfig) (live.Stream, error) {
	liveCfg := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: connectCfg.SystemInstruction}},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.VoiceName},
			},
			LanguageCode: c.cfg.LanguageCode,
		},
		Temperature: genai.Ptr(float32(c.cfg.Temperature)),
		SessionResumption: &genai.SessionResumptionConfig{
			Handle: connectCfg.ResumptionHandle,
		},
	}

	session, err := c.client.Live.Connect(ctx, c.cfg.Model, liveCfg)
	if err != nil {
		return nil, fmt.Errorf("connect gemini live: %w", err)
	}
	return &geminiStream{session: session}, nil
}

type geminiStream struct {
	session *genai.Session
}

func (s *geminiStream) SendAudio(pcm []byte) error {
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: pcm, MIMEType: pcmInputMIMEType},
	})
}

func (s *geminiStream) SendText(text string) error {
	return s.session.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}},
		},
		TurnComplete: genai.Ptr(true),
	})
}

func (s *geminiStream) Receive() (*live.ServerEvent, error) {
	message, err := s.session.Receive()
	if err != nil {
		return nil, err
	}
	return mapServerMessage(message), nil
}

// mapServerMessage flattens one Gemini server message onto the session event
// model. Message shapes the session does not care about come back as empty
// events.
func mapServerMessage(message *genai.LiveServerMessage) *live.ServerEvent {
	event := &live.ServerEvent{}
	if update := message.SessionResumptionUpdate; update != nil && update.Resumable && update.NewHandle != "" {
		event.ResumptionHandle = update.NewHandle
	}

	content := message.ServerContent
	if content == nil {
		return event
	}
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				event.Audio = append(event.Audio, part.InlineData.Data...)
			}
		}
	}
	if content.OutputTranscription != nil {
		event.Text = content.OutputTranscription.Text
	}
	event.TurnComplete = content.TurnComplete
	return event
}

func (s *geminiStream) Close() error {
	return s.session.Close()
}
