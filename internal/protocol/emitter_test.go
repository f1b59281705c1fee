package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	require.NoError(t, e.Emit(Response{Status: StatusSuccess, MessageID: "m1", SoundID: "s1"}))
	require.NoError(t, e.Emit(NewFinishedEvent("m1", "s1", 1.5, nil)))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"status":"success","messageId":"m1","sound_id":"s1"}`, string(lines[0]))
	assert.JSONEq(t, `{"status":"finished","sound_id":"s1","duration":1.5,"expected_duration":null,"messageId":"m1"}`, string(lines[1]))
}

func TestEmitter_ErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	expected := 3.25
	require.NoError(t, NewEmitter(&buf).Emit(NewErrorEvent("m1", "s1", 0.1, &expected, 2, "bad header")))
	assert.JSONEq(t,
		`{"status":"error","sound_id":"s1","duration":0.1,"expected_duration":3.25,"messageId":"m1","exit_code":2,"message":"bad header"}`,
		buf.String())
}

func TestEmitter_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Emit(NewErrorResponse("m", "s", "some fairly long message to widen the write"))
		}()
	}
	wg.Wait()

	sc := bufio.NewScanner(&buf)
	n := 0
	for sc.Scan() {
		var r Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		n++
	}
	assert.Equal(t, 50, n)
}
