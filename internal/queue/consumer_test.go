package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAppendsLogLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "booking.log")
	c := NewConsumer("", path, logrus.New())

	ev := BookingCreatedEvent{BookingID: 7, UserID: 3, ScreeningID: 42, MovieTitle: "Dune",
		CinemaName: "Grand", HallName: "A1", Seat: "A5", PriceCents: 1250, CreatedAt: "2026-01-01T10:00:00Z"}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking_id=7")
	assert.Contains(t, lines[0], `movie="Dune"`)
	assert.Contains(t, lines[0], "seat=A5")
}

func TestHandleRejectsBadMessages(t *testing.T) {
	c := NewConsumer("", filepath.Join(t.TempDir(), "booking.log"), logrus.New())
	assert.Error(t, c.Handle([]byte("not json")))
	assert.Error(t, c.Handle([]byte(`{"seat":"A1"}`)))
}

func TestNewConsumerDefaultPath(t *testing.T) {
	c := NewConsumer("amqp://x", "", logrus.New())
	assert.Equal(t, filepath.Join("logs", "booking.log"), c.LogPath)
}
