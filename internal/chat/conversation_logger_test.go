package chat

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestConversationLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, slog.Default())
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Log(ConversationLogEvent{
		VisitorID:  "visitor-1",
		SessionID:  "sess-1",
		Channel:    "chat",
		Direction:  "inbound",
		EventType:  "chat_user_message",
		ContentRaw: "how do I\nsell",
	})

	line := waitForLogLine(t, filepath.Join(dir, "visitor-1", "sess-1.ndjson"))
	var got ConversationLogEvent
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "how do I\nsell", got.ContentRaw)
	assert.Equal(t, "how do I sell", got.Content)
}

func TestConversationLoggerGlobalFileAndClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	global := filepath.Join(dir, "all", "conversations.ndjson")
	logger, err := NewConversationLogger(ConversationLogConfig{
		GlobalEnabled: true,
		GlobalPath:    global,
	}, nil)
	require.NoError(t, err)

	for range 3 {
		logger.Log(ConversationLogEvent{VisitorID: "v", SessionID: "s", ContentRaw: "hi"})
	}
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Close drains the queue.
	data, err := os.ReadFile(global)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	// Events after Close are dropped.
	logger.Log(ConversationLogEvent{VisitorID: "v", SessionID: "s", ContentRaw: "late"})
}

func TestConversationLoggerCloseStopsWriter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled: true,
		Dir:     t.TempDir(),
	}, nil)
	require.NoError(t, err)

	logger.Log(ConversationLogEvent{VisitorID: "v", SessionID: "s", ContentRaw: "hello"})
	require.NoError(t, logger.Close())
}

func TestConversationLoggerDisabledIsNoop(t *testing.T) {
	t.Parallel()

	logger, err := NewConversationLogger(ConversationLogConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, noopConversationLogger{}, logger)
	assert.NoError(t, logger.Close())
}

func TestTranscriptObserverLogsMessages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewConversationLogger(ConversationLogConfig{Enabled: true, Dir: dir}, nil)
	require.NoError(t, err)

	r := newTestRegistry()
	r.SetObserver(TranscriptObserver(logger))
	s := r.GetOrCreate("visitor-1", "tab")
	_, err = s.Send("How do I get paid?")
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "visitor-1", s.ID()+".ndjson"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var user, assistant ConversationLogEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &user))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &assistant))
	assert.Equal(t, "chat_user_message", user.EventType)
	assert.Equal(t, "inbound", user.Direction)
	assert.Equal(t, "chat_assistant_message", assistant.EventType)
	assert.Equal(t, string(TopicPayment), assistant.Meta["topic"])
}

func TestCleanForReadabilityStripsANSI(t *testing.T) {
	t.Parallel()

	clean := cleanForReadability("\x1b[31merror\x1b[0m  plain\x07")
	assert.Equal(t, "error plain", clean)
}

func TestSafePathSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".._etc_passwd", safePathSegment("../etc/passwd"))
	assert.Equal(t, "unknown", safePathSegment(".."))
	assert.Equal(t, "unknown", safePathSegment(""))
	assert.Equal(t, "visitor_abc", safePathSegment("visitor_abc"))
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			return lines[len(lines)-1]
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
