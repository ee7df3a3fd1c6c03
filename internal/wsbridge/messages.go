package wsbridge

import "encoding/json"

// Event names on the meeting-bot provider's realtime feed.
const (
	eventAudioMixedRaw = "audio_mixed_raw.data"
	eventTranscript    = "transcript.data"
	eventSpeechOn      = "participant_events.speech_on"
	eventSpeechOff     = "participant_events.speech_off"
)

// envelope is the outer frame of every realtime event.
type envelope struct {
	Event string       `json:"event"`
	Data  envelopeData `json:"data"`
}

type envelopeData struct {
	// Data is the event-specific payload, decoded per event name.
	Data json.RawMessage `json:"data"`
	Bot  botRef          `json:"bot"`
}

type botRef struct {
	ID string `json:"id"`
}

// audioPayload carries one chunk of mixed meeting audio, 16kHz s16le mono,
// base64-encoded.
type audioPayload struct {
	Buffer string `json:"buffer"`
}

type participantRef struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

type transcriptWord struct {
	Text string `json:"text"`
}

// transcriptPayload is one finalized transcript fragment for one speaker.
type transcriptPayload struct {
	Words       []transcriptWord `json:"words"`
	Participant participantRef   `json:"participant"`
}

type participantEventPayload struct {
	Participant participantRef `json:"participant"`
}
