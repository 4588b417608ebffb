// Package observer broadcasts live execution telemetry — one event per
// task completion, plus a final idle event — to connected dashboard
// clients. It hooks into the core without the core knowing about it: a
// wrapped task.Handle and a pool/executor idle callback are the only two
// integration points.
//
// Grounded on the teacher's zishang520 socket.io module family
// (modules/socketio/module.go, modules/socketio_client/module.go), which
// exercises this library as a *client*; Observer exercises the same
// library family from the server side, the natural complement for a
// process that wants to push events out to whatever dashboard connects.
package observer

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	enginetypes "github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/taskgrid/node"
	"github.com/vk/taskgrid/task"
)

// Event is one broadcast unit: a task transitioned to state, after taking
// duration to get there.
type Event struct {
	TaskID   string        `json:"taskId"`
	State    string        `json:"state"`
	Duration time.Duration `json:"duration"`
}

// Observer fans telemetry out over two transports at once: Socket.IO for
// clients that speak the protocol, and a raw gorilla/websocket endpoint for
// clients that don't — mirroring how engine.io itself runs over
// gorilla/websocket as a transport underneath socket.io-client-go in the
// teacher's own dependency graph.
type Observer struct {
	io *socket.Server

	upgrader websocket.Upgrader
	wsMu     sync.Mutex
	wsConns  map[*websocket.Conn]struct{}
}

// New constructs an Observer with its own Socket.IO server instance,
// unattached to any HTTP server until Attach is called.
func New() *Observer {
	return &Observer{
		io:      socket.NewServer(nil, nil),
		wsConns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Attach mounts the Socket.IO server onto srv, the same relationship the
// teacher's client module has to a remote server, inverted.
func (o *Observer) Attach(srv *enginetypes.HttpServer) {
	o.io.Attach(srv, nil)
}

// ServeWS upgrades r into a raw websocket connection and registers it to
// receive every subsequent Broadcast. Wire it to an http.ServeMux route
// (e.g. "/ws") alongside Attach's Socket.IO mount.
func (o *Observer) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	o.wsMu.Lock()
	o.wsConns[conn] = struct{}{}
	o.wsMu.Unlock()

	go func() {
		defer func() {
			o.wsMu.Lock()
			delete(o.wsConns, conn)
			o.wsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes ev to every connected Socket.IO client and every raw
// websocket client.
func (o *Observer) Broadcast(ev Event) {
	o.io.Emit("task", ev)

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	o.wsMu.Lock()
	defer o.wsMu.Unlock()
	for conn := range o.wsConns {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

// Wrap returns a task.Handle that runs h and then broadcasts a "complete"
// Event carrying id and the wall-clock duration Run took, leaving h itself
// untouched.
func (o *Observer) Wrap(id string, h task.Handle) task.Handle {
	return &observedTask{id: id, inner: h, obs: o}
}

// OnIdle returns a callback suitable for pool.WithOnIdle or
// executor.Executor.OnIdle that broadcasts a single "idle" Event once the
// pool has drained.
func (o *Observer) OnIdle() func() {
	return func() {
		o.Broadcast(Event{TaskID: "", State: "idle"})
	}
}

type observedTask struct {
	id    string
	inner task.Handle
	obs   *Observer
}

func (w *observedTask) AsNode() *node.Node { return w.inner.AsNode() }

func (w *observedTask) Run() {
	start := time.Now()
	w.inner.Run()
	w.obs.Broadcast(Event{TaskID: w.id, State: "complete", Duration: time.Since(start)})
}
