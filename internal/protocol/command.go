// Package protocol implements the line-oriented control protocol: pipe
// delimited commands in, one JSON object per line out.
package protocol

import (
	"fmt"
	"strings"
)

// Delimiter separates the fields of a command line.
const Delimiter = "|"

// Verb identifies a command.
type Verb string

const (
	VerbPlay    Verb = "PLAY"
	VerbStop    Verb = "STOP"
	VerbStopAll Verb = "STOP_ALL"
	VerbStatus  Verb = "STATUS"
	VerbExit    Verb = "EXIT"
)

// arity is the exact number of arguments each verb takes.
var arity = map[Verb]int{
	VerbPlay:    2, // sound id, file path
	VerbStop:    1, // sound id
	VerbStopAll: 0,
	VerbStatus:  1, // sound id
	VerbExit:    0,
}

// Command is one validated control command.
type Command struct {
	MessageID string
	Verb      Verb
	Args      []string
	Legacy    bool // message id was synthesized
}

// SoundID returns the sound id argument of PLAY, STOP and STATUS.
func (c Command) SoundID() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Path returns the file path argument of PLAY.
func (c Command) Path() string {
	if c.Verb != VerbPlay || len(c.Args) < 2 {
		return ""
	}
	return c.Args[1]
}

// ProtocolError reports a malformed command. MessageID is set when the line
// carried one.
type ProtocolError struct {
	MessageID string
	Reason    string
}

func (e *ProtocolError) Error() string {
	return e.Reason
}

// IsVerb reports whether s names a known verb.
func IsVerb(s string) bool {
	_, ok := arity[Verb(s)]
	return ok
}

// Parser turns command lines into Commands.
type Parser struct {
	newID func() string
}

// NewParser creates a parser. newID synthesizes message ids for the legacy
// forms that carry none.
func NewParser(newID func() string) *Parser {
	return &Parser{newID: newID}
}

// Parse parses one line. Two shapes are accepted:
//
//	message_id|VERB|args...
//	VERB|args...            (legacy, message id synthesized)
//
// The returned bool is false for blank lines, which are not commands.
func (p *Parser) Parse(line string) (Command, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false, nil
	}

	fields := strings.Split(line, Delimiter)

	var cmd Command
	switch {
	case IsVerb(fields[0]):
		cmd = Command{
			MessageID: p.newID(),
			Verb:      Verb(fields[0]),
			Args:      fields[1:],
			Legacy:    true,
		}
	case len(fields) >= 2:
		if fields[0] == "" {
			return Command{}, true, &ProtocolError{Reason: "empty message id"}
		}
		if !IsVerb(fields[1]) {
			return Command{}, true, &ProtocolError{
				MessageID: fields[0],
				Reason:    fmt.Sprintf("unknown command: %s", fields[1]),
			}
		}
		cmd = Command{
			MessageID: fields[0],
			Verb:      Verb(fields[1]),
			Args:      fields[2:],
		}
	default:
		return Command{}, true, &ProtocolError{Reason: fmt.Sprintf("unknown command: %s", fields[0])}
	}

	if want := arity[cmd.Verb]; len(cmd.Args) != want {
		return Command{}, true, &ProtocolError{
			MessageID: cmd.MessageID,
			Reason:    fmt.Sprintf("%s expects %d argument(s), got %d", cmd.Verb, want, len(cmd.Args)),
		}
	}
	return cmd, true, nil
}
