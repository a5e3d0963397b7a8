package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  int
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained++
	return nil
}

func testPublisher(conn *fakeConn, prefix string) *NATSPublisher {
	return newNATSPublisher(conn, prefix, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishEncodesEvent(t *testing.T) {
	conn := &fakeConn{}
	p := testPublisher(conn, "fleet")

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Kind:      KindHealthAlert,
		SessionID: "s-1",
		Persona:   "KITT",
		At:        at,
		Payload:   map[string]any{"kind": "redline"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"fleet.vehicle.alert"}, conn.subjects)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, "s-1", decoded["sessionId"])
	assert.Equal(t, "KITT", decoded["persona"])
	assert.Equal(t, "2025-01-02T03:04:05Z", decoded["at"])
}

func TestPublishDefaultsPrefixAndTimestamp(t *testing.T) {
	conn := &fakeConn{}
	p := testPublisher(conn, "")

	require.NoError(t, p.Publish(context.Background(), Event{Kind: KindSessionOpened, SessionID: "s"}))
	assert.Equal(t, "velovoice.session.opened", conn.subjects[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.False(t, decoded.At.IsZero())
}

func TestPublishWrapsConnErrors(t *testing.T) {
	boom := errors.New("slow consumer")
	p := testPublisher(&fakeConn{err: boom}, "x")

	err := p.Publish(context.Background(), Event{Kind: KindCommandProcessed})
	assert.ErrorIs(t, err, boom)
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	conn := &fakeConn{}
	p := testPublisher(conn, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, p.Publish(ctx, Event{Kind: KindSessionClosed}))
	assert.Empty(t, conn.subjects)
}

func TestCloseDrainsOnceAndStopsPublishing(t *testing.T) {
	conn := &fakeConn{}
	p := testPublisher(conn, "x")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, conn.drained)

	require.NoError(t, p.Publish(context.Background(), Event{Kind: KindSessionOpened}))
	assert.Empty(t, conn.subjects)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
