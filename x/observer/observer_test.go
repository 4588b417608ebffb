package observer_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/node"
	"github.com/vk/taskgrid/task"
	"github.com/vk/taskgrid/x/observer"
)

type fakeTask struct {
	n   *node.Node
	ran bool
}

func newFakeTask() *fakeTask {
	n := node.New(0)
	return &fakeTask{n: n}
}

func (f *fakeTask) AsNode() *node.Node { return f.n }
func (f *fakeTask) Run()               { f.ran = true }

func TestObserver_WrapRunsInnerTaskAndBroadcasts(t *testing.T) {
	obs := observer.New()

	srv := httptest.NewServer(http.HandlerFunc(obs.ServeWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server's registration goroutine a moment to add conn to
	// Observer's connection set before anything broadcasts.
	time.Sleep(20 * time.Millisecond)

	inner := newFakeTask()
	wrapped := obs.Wrap("task-1", inner)

	var handle task.Handle = wrapped
	require.NotNil(t, handle.AsNode())

	handle.Run()
	assert.True(t, inner.ran)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "task-1")
	assert.Contains(t, string(msg), "complete")
}

func TestObserver_OnIdleBroadcastsIdleEvent(t *testing.T) {
	obs := observer.New()

	srv := httptest.NewServer(http.HandlerFunc(obs.ServeWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	cb := obs.OnIdle()
	cb()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "idle")
}
