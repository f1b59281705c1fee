package server

import (
	"github.com/rs/zerolog"

	"prop-sound/internal/protocol"
	"prop-sound/internal/sound"
)

// EventNotifier writes terminal playback events to an emitter.
type EventNotifier struct {
	out *protocol.Emitter
	log zerolog.Logger
}

// NewEventNotifier creates a notifier writing to out.
func NewEventNotifier(out *protocol.Emitter, log zerolog.Logger) *EventNotifier {
	return &EventNotifier{out: out, log: log}
}

// Completed implements sound.Notifier.
func (n *EventNotifier) Completed(c sound.Completion) {
	if err := n.out.Emit(CompletionEvent(c)); err != nil {
		// The channel that launched the sound may be gone.
		n.log.Debug().Err(err).Str("sound_id", c.SoundID).Msg("drop terminal event")
	}
}

// CompletionEvent converts a completion into its wire event.
func CompletionEvent(c sound.Completion) protocol.Event {
	duration := c.Duration.Seconds()
	expected := seconds(c.ExpectedDuration)
	if c.Failed {
		msg := c.Exit.Stderr
		if msg == "" && c.Exit.Err != nil {
			msg = c.Exit.Err.Error()
		}
		return protocol.NewErrorEvent(c.MessageID, c.SoundID, duration, expected, c.Exit.Code, msg)
	}
	return protocol.NewFinishedEvent(c.MessageID, c.SoundID, duration, expected)
}
