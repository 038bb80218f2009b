package host

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"gridfactory.dev/internal/protocol"
	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/level"
)

type CmdEnvelope struct {
	ClientID string
	Cmd      protocol.CmdMsg
}

type JoinRequest struct {
	ClientID string
	Name     string
	Observer bool
	Out      chan []byte
	Resp     chan JoinResponse
}

// JoinResponse carries either a WELCOME or a rejection code.
type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Code    string
}

type client struct {
	name     string
	observer bool
	out      chan []byte
}

// Host owns one factory session. All session access happens on the Run
// goroutine; other goroutines talk to it through channels and read the
// published metrics/frame.
type Host struct {
	lv   level.Level
	sess *factory.Session
	log  *log.Logger

	inbox chan CmdEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	clients  map[string]*client
	editorID string

	// Optional (may be nil).
	auditLogger AuditLogger

	tick      atomic.Uint64
	frames    atomic.Uint64
	metrics   atomic.Value
	lastFrame atomic.Value
}

func New(lv level.Level, sess *factory.Session, logger *log.Logger) *Host {
	if logger == nil {
		logger = log.New(log.Writer(), "[host] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Host{
		lv:      lv,
		sess:    sess,
		log:     logger,
		inbox:   make(chan CmdEnvelope, 256),
		join:    make(chan JoinRequest, 16),
		leave:   make(chan string, 16),
		stop:    make(chan struct{}),
		clients: map[string]*client{},
	}
}

func (h *Host) Inbox() chan<- CmdEnvelope { return h.inbox }
func (h *Host) Join() chan<- JoinRequest  { return h.join }
func (h *Host) Leave() chan<- string      { return h.leave }

func (h *Host) Level() level.Level  { return h.lv }
func (h *Host) CurrentTick() uint64 { return h.tick.Load() }

// Run drives frames at the level's frame rate until ctx is done or Stop is
// called. Per frame: drain commands, advance the clock by the real elapsed
// time, publish one FRAME.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.lv.FramePeriod())
	defer ticker.Stop()

	last := time.Now()
	var pending []CmdEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.join:
			h.handleJoin(req)
		case id := <-h.leave:
			h.handleLeave(id)
		case env := <-h.inbox:
			pending = append(pending, env)
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			h.StepFrame(dt, pending)
			pending = pending[:0]
		}
	}
}

func (h *Host) Stop() { close(h.stop) }

// StepFrame runs one host frame with an explicit elapsed time. It must only be
// called from the goroutine that owns the session (Run, or a test).
func (h *Host) StepFrame(dt time.Duration, cmds []CmdEnvelope) int {
	start := time.Now()
	for _, env := range cmds {
		ack := h.applyCmd(env)
		if h.auditLogger != nil {
			_ = h.auditLogger.WriteAudit(AuditEntry{
				Tick:     ack.Tick,
				ClientID: env.ClientID,
				CmdID:    env.Cmd.ID,
				Op:       env.Cmd.Op,
				Cell:     env.Cmd.Cell,
				Kind:     env.Cmd.Kind,
				Dir:      env.Cmd.Dir,
				Accepted: ack.Accepted,
				Code:     ack.Code,
			})
		}
		if c := h.clients[env.ClientID]; c != nil {
			trySend(c.out, mustJSON(ack))
		}
	}

	fired := h.sess.Advance(dt)
	h.tick.Store(h.sess.CurrentTick())

	frame := FrameFromSnapshot(h.sess.Snapshot())
	b := mustJSON(frame)
	h.lastFrame.Store(b)
	for _, c := range h.clients {
		sendLatest(c.out, b)
	}

	h.frames.Add(1)
	h.metrics.Store(Metrics{
		Session:   h.sess.Metrics(),
		Clients:   len(h.clients),
		Observers: h.observerCount(),
		Frames:    h.frames.Load(),
		FrameMS:   float64(time.Since(start).Microseconds()) / 1000.0,
		QueueDepths: QueueDepths{
			Inbox: len(h.inbox),
			Join:  len(h.join),
			Leave: len(h.leave),
		},
	})
	return fired
}

func (h *Host) handleJoin(req JoinRequest) {
	resp := h.attach(req)
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (h *Host) attach(req JoinRequest) JoinResponse {
	if req.Out == nil || req.ClientID == "" {
		return JoinResponse{Code: protocol.ErrBadRequest}
	}
	if _, dup := h.clients[req.ClientID]; dup {
		return JoinResponse{Code: protocol.ErrConflict}
	}
	// One controlling client at a time; everyone else watches.
	if !req.Observer && h.editorID != "" {
		return JoinResponse{Code: protocol.ErrWorldBusy}
	}
	h.clients[req.ClientID] = &client{name: req.Name, observer: req.Observer, out: req.Out}
	if !req.Observer {
		h.editorID = req.ClientID
	}
	h.log.Printf("client attached id=%s name=%q observer=%v", req.ClientID, req.Name, req.Observer)
	return JoinResponse{Welcome: h.buildWelcome(req.ClientID)}
}

func (h *Host) handleLeave(id string) {
	if _, ok := h.clients[id]; !ok {
		return
	}
	delete(h.clients, id)
	if h.editorID == id {
		h.editorID = ""
	}
	h.log.Printf("client detached id=%s", id)
}

func (h *Host) observerCount() int {
	n := 0
	for _, c := range h.clients {
		if c.observer {
			n++
		}
	}
	return n
}

// LatestFrame returns the last published FRAME as JSON, or nil before the
// first frame.
func (h *Host) LatestFrame() []byte {
	v := h.lastFrame.Load()
	if v == nil {
		return nil
	}
	b, _ := v.([]byte)
	return b
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func trySend(ch chan []byte, b []byte) {
	select {
	case ch <- b:
	default:
	}
}
