package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/gameday/domain"
)

func TestStreamWriteSnapshotEvent(t *testing.T) {
	h, store, _ := newReminderHandler(t)
	stream := NewStreamHandler(h, nil, nil)
	defer stream.Close()

	_, err := store.Add(context.Background(), domain.Draft{Title: "Two-minute drill", Deadline: gametime.Add(2 * time.Minute)})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, stream.write(w, store.Snapshot()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: snapshot\ndata: "))
	require.True(t, strings.HasSuffix(out, "\n\n"))

	var event streamEvent
	payload := strings.TrimSuffix(strings.TrimPrefix(out, "event: snapshot\ndata: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	require.Len(t, event.Reminders, 1)
	assert.Equal(t, "2m 0s", event.Reminders[0].Countdown.Display)
	assert.Equal(t, 1, event.Stats.TotalPlays)
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	h, _, _ := newReminderHandler(t)
	stream := NewStreamHandler(h, nil, nil)
	stream.Close()
	stream.Close()

	select {
	case <-stream.closing:
	default:
		t.Fatal("stream not closed")
	}
}
