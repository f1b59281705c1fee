// Package server exposes the sound service over its control channels: the
// line protocol on stdin or a unix socket, and an HTTP API.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"prop-sound/internal/logging"
	"prop-sound/internal/protocol"
	"prop-sound/internal/sound"
)

// LegacyMessageID synthesizes the message id for commands sent without one.
func LegacyMessageID() string {
	return "legacy-" + uuid.NewString()
}

// Dispatcher reads commands, routes them to the sound service and writes
// exactly one response per command. Commands are handled strictly in order.
type Dispatcher struct {
	svc    *sound.Service
	parser *protocol.Parser
	out    *protocol.Emitter
	events sound.Notifier
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher writing responses and the terminal
// events of sounds it launches to out.
func NewDispatcher(svc *sound.Service, out *protocol.Emitter, newID func() string, logger zerolog.Logger) *Dispatcher {
	log := logging.Component(logger, "dispatcher")
	return &Dispatcher{
		svc:    svc,
		parser: protocol.NewParser(newID),
		out:    out,
		events: NewEventNotifier(out, log),
		log:    log,
	}
}

// Run processes lines from r until EXIT, end of input or ctx is done.
// Only a failure of r itself is returned as an error.
func (d *Dispatcher) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		line, readErr := br.ReadString('\n')
		if ctx.Err() != nil {
			return nil
		}

		if d.handleLine(line) {
			return nil
		}

		if errors.Is(readErr, io.EOF) {
			d.log.Info().Msg("end of input")
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read commands: %w", readErr)
		}
	}
}

// handleLine parses and executes one line. It returns true on EXIT.
func (d *Dispatcher) handleLine(line string) bool {
	cmd, ok, err := d.parser.Parse(line)
	if !ok {
		return false
	}
	if err != nil {
		var pe *protocol.ProtocolError
		if !errors.As(err, &pe) {
			pe = &protocol.ProtocolError{Reason: err.Error()}
		}
		d.log.Debug().Err(err).Str("line", line).Msg("rejected command")
		d.emit(protocol.NewErrorResponse(pe.MessageID, "", pe.Reason))
		return false
	}

	resp, exit := d.Handle(cmd)
	d.emit(resp)
	if exit {
		d.log.Info().Str("message_id", cmd.MessageID).Msg("exit requested")
	}
	return exit
}

// Handle executes one command and returns its response. exit is true for
// EXIT.
func (d *Dispatcher) Handle(cmd protocol.Command) (resp protocol.Response, exit bool) {
	d.log.Debug().Str("verb", string(cmd.Verb)).Str("message_id", cmd.MessageID).Strs("args", cmd.Args).Msg("command")

	switch cmd.Verb {
	case protocol.VerbPlay:
		return d.play(cmd), false
	case protocol.VerbStop:
		return d.stop(cmd), false
	case protocol.VerbStopAll:
		return d.stopAll(cmd), false
	case protocol.VerbStatus:
		return d.status(cmd), false
	case protocol.VerbExit:
		return protocol.Response{Status: protocol.StatusExiting, MessageID: cmd.MessageID}, true
	default:
		return protocol.NewErrorResponse(cmd.MessageID, "", fmt.Sprintf("unknown command: %s", cmd.Verb)), false
	}
}

func (d *Dispatcher) play(cmd protocol.Command) protocol.Response {
	h, err := d.svc.Play(sound.PlayRequest{
		MessageID: cmd.MessageID,
		SoundID:   cmd.SoundID(),
		Path:      cmd.Path(),
		Notify:    d.events,
	})
	if err != nil {
		return protocol.NewErrorResponse(cmd.MessageID, cmd.SoundID(), err.Error())
	}
	return protocol.Response{
		Status:           protocol.StatusSuccess,
		MessageID:        cmd.MessageID,
		SoundID:          h.SoundID,
		Pid:              h.Pid(),
		ExpectedDuration: seconds(h.ExpectedDuration),
	}
}

func (d *Dispatcher) stop(cmd protocol.Command) protocol.Response {
	id := cmd.SoundID()
	_, err := d.svc.Stop(id)

	var pe *sound.ProcessError
	switch {
	case err == nil:
		return protocol.Response{Status: protocol.StatusStopped, MessageID: cmd.MessageID, SoundID: id}
	case errors.Is(err, sound.ErrNotFound):
		return protocol.Response{Status: protocol.StatusNotFound, MessageID: cmd.MessageID, SoundID: id, Message: err.Error()}
	case errors.As(err, &pe):
		return protocol.Response{Status: protocol.StatusWarning, MessageID: cmd.MessageID, SoundID: id, Message: err.Error()}
	default:
		return protocol.NewErrorResponse(cmd.MessageID, id, err.Error())
	}
}

func (d *Dispatcher) stopAll(cmd protocol.Command) protocol.Response {
	resp := protocol.Response{Status: protocol.StatusSuccess, MessageID: cmd.MessageID, Stopped: []string{}}
	for _, o := range d.svc.StopAll() {
		switch {
		case o.Err == nil:
			resp.Stopped = append(resp.Stopped, o.SoundID)
		case errors.Is(o.Err, sound.ErrNotFound):
			// Finished on its own during the sweep.
		default:
			resp.Stopped = append(resp.Stopped, o.SoundID)
			resp.Warnings = append(resp.Warnings, o.Err.Error())
		}
	}
	return resp
}

func (d *Dispatcher) status(cmd protocol.Command) protocol.Response {
	id := cmd.SoundID()
	snap, ok := d.svc.Status(id)
	if !ok {
		return protocol.Response{Status: protocol.StatusNotFound, MessageID: cmd.MessageID, SoundID: id}
	}
	elapsed := snap.Elapsed.Seconds()
	return protocol.Response{
		Status:           protocol.StatusPlaying,
		MessageID:        cmd.MessageID,
		SoundID:          id,
		Pid:              snap.Pid,
		Elapsed:          &elapsed,
		ExpectedDuration: seconds(snap.ExpectedDuration),
	}
}

func (d *Dispatcher) emit(v any) {
	if err := d.out.Emit(v); err != nil {
		d.log.Error().Err(err).Msg("write response")
	}
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}
