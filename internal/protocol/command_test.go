package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID() string { return "legacy-1" }

func TestParse_Explicit(t *testing.T) {
	p := NewParser(fixedID)

	cmd, ok, err := p.Parse("m1|PLAY|s1|/sounds/a.mp3\r\n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m1", cmd.MessageID)
	assert.Equal(t, VerbPlay, cmd.Verb)
	assert.Equal(t, "s1", cmd.SoundID())
	assert.Equal(t, "/sounds/a.mp3", cmd.Path())
	assert.False(t, cmd.Legacy)
}

func TestParse_Legacy(t *testing.T) {
	p := NewParser(fixedID)

	tests := []struct {
		line string
		verb Verb
		args []string
	}{
		{"PLAY|s1|/sounds/a.mp3", VerbPlay, []string{"s1", "/sounds/a.mp3"}},
		{"STOP|s1", VerbStop, []string{"s1"}},
		{"STOP_ALL", VerbStopAll, []string{}},
		{"STATUS|s1", VerbStatus, []string{"s1"}},
		{"EXIT", VerbExit, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, ok, err := p.Parse(tt.line)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.verb, cmd.Verb)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, "legacy-1", cmd.MessageID)
			assert.True(t, cmd.Legacy)
		})
	}
}

func TestParse_Blank(t *testing.T) {
	_, ok, err := NewParser(fixedID).Parse("   \n")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	p := NewParser(fixedID)

	tests := []struct {
		line      string
		messageID string
	}{
		{"HELLO", ""},
		{"m1|DANCE|s1", "m1"},
		{"m2|PLAY|s1", "m2"},
		{"m3|STOP", "m3"},
		{"m4|STOP_ALL|extra", "m4"},
		{"m5|STATUS|a|b", "m5"},
		{"PLAY|s1", "legacy-1"},
		{"|PLAY|s1|a.mp3", ""},
		{"play|s1|a.mp3", "play"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, ok, err := p.Parse(tt.line)
			require.True(t, ok)
			var pe *ProtocolError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.messageID, pe.MessageID)
			assert.NotEmpty(t, pe.Error())
		})
	}
}

func TestCommand_PathOnlyForPlay(t *testing.T) {
	cmd := Command{Verb: VerbStop, Args: []string{"s1"}}
	assert.Equal(t, "", cmd.Path())
	assert.Equal(t, "s1", cmd.SoundID())
	assert.Equal(t, "", Command{Verb: VerbStopAll}.SoundID())
}
