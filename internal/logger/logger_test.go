package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, LevelOff, ParseLevel("bogus"))
}

func TestLoggerOnlyPrintsEnabledComponents(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewStdSink(&buf), map[Component]Level{
		ComponentTopology:        LevelInfo,
		ComponentServerSelection: LevelOff,
	})
	defer l.Close()

	l.Print(LevelInfo, TopologyOpeningMessage{Seeds: []string{"h1:27017"}})
	l.Print(LevelDebug, ServerSelectionTimeoutMessage{Timeout: "30s"})

	require.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("Starting topology monitoring"))
	}, time.Second, time.Millisecond)

	assert.NotContains(t, buf.String(), "Server selection timed out")
}

func TestIs(t *testing.T) {
	l := New(NewStdSink(&bytes.Buffer{}), map[Component]Level{
		ComponentTopology: LevelDebug,
	})
	defer l.Close()

	assert.True(t, l.Is(LevelInfo, ComponentTopology))
	assert.True(t, l.Is(LevelDebug, ComponentTopology))
	assert.False(t, l.Is(LevelInfo, ComponentServerSelection))
}
