package protocol

// Status values carried in the "status" field.
const (
	StatusReady    = "ready"
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusWarning  = "warning"
	StatusPlaying  = "playing"
	StatusStopped  = "stopped"
	StatusNotFound = "not_found"
	StatusFinished = "finished"
	StatusExiting  = "exiting"
)

// Response is the direct reply to one command.
type Response struct {
	Status           string   `json:"status"`
	MessageID        string   `json:"messageId,omitempty"`
	SoundID          string   `json:"sound_id,omitempty"`
	Message          string   `json:"message,omitempty"`
	Pid              int      `json:"pid,omitempty"`
	Elapsed          *float64 `json:"elapsed,omitempty"`
	ExpectedDuration *float64 `json:"expected_duration,omitempty"`
	Stopped          []string `json:"stopped,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Event is the asynchronous terminal report for one playback.
type Event struct {
	Status           string   `json:"status"`
	SoundID          string   `json:"sound_id"`
	Duration         float64  `json:"duration"`
	ExpectedDuration *float64 `json:"expected_duration"`
	MessageID        string   `json:"messageId"`
	ExitCode         *int     `json:"exit_code,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// ReadyEvent is written once at startup.
type ReadyEvent struct {
	Status           string `json:"status"`
	Decoder          string `json:"decoder"`
	DecoderAvailable bool   `json:"decoder_available"`
}

// NewReadyEvent creates a ready event.
func NewReadyEvent(decoder string, available bool) ReadyEvent {
	return ReadyEvent{
		Status:           StatusReady,
		Decoder:          decoder,
		DecoderAvailable: available,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(messageID, soundID, message string) Response {
	return Response{
		Status:    StatusError,
		MessageID: messageID,
		SoundID:   soundID,
		Message:   message,
	}
}

// NewFinishedEvent creates a finished event.
func NewFinishedEvent(messageID, soundID string, duration float64, expected *float64) Event {
	return Event{
		Status:           StatusFinished,
		SoundID:          soundID,
		Duration:         duration,
		ExpectedDuration: expected,
		MessageID:        messageID,
	}
}

// NewErrorEvent creates an error event for a decoder that exited badly.
func NewErrorEvent(messageID, soundID string, duration float64, expected *float64, exitCode int, message string) Event {
	return Event{
		Status:           StatusError,
		SoundID:          soundID,
		Duration:         duration,
		ExpectedDuration: expected,
		MessageID:        messageID,
		ExitCode:         &exitCode,
		Message:          message,
	}
}
