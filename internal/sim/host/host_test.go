package host

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"gridfactory.dev/internal/protocol"
	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/level"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	lv := level.Default()
	sess, err := factory.NewSession(lv.ToConfig())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return New(lv, sess, log.New(io.Discard, "", 0))
}

func cmd(id, op string) protocol.CmdMsg {
	return protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ID: id, Op: op}
}

func cellPtr(c, r int) *[2]int { return &[2]int{c, r} }

// drain decodes every queued message on out, keyed by type.
func drain(t *testing.T, out chan []byte) (acks []protocol.AckMsg, frames []protocol.FrameMsg) {
	t.Helper()
	for {
		select {
		case b := <-out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			switch base.Type {
			case protocol.TypeAck:
				var a protocol.AckMsg
				_ = json.Unmarshal(b, &a)
				acks = append(acks, a)
			case protocol.TypeFrame:
				if err := protocol.Validate(protocol.SchemaFrame, b); err != nil {
					t.Fatalf("frame schema: %v", err)
				}
				var f protocol.FrameMsg
				_ = json.Unmarshal(b, &f)
				frames = append(frames, f)
			}
		default:
			return acks, frames
		}
	}
}

func join(t *testing.T, h *Host, id string, observer bool) (chan []byte, JoinResponse) {
	t.Helper()
	out := make(chan []byte, 64)
	resp := h.attach(JoinRequest{ClientID: id, Name: id, Observer: observer, Out: out})
	return out, resp
}

func TestHost_JoinWelcome(t *testing.T) {
	h := newTestHost(t)
	_, resp := join(t, h, "c1", false)
	if resp.Code != "" {
		t.Fatalf("join rejected: %s", resp.Code)
	}
	w := resp.Welcome
	if w.SessionID != "c1" || w.Grid != [2]int{8, 8} || len(w.Menu) != 2 || len(w.Inputs) != 1 {
		t.Fatalf("unexpected welcome: %+v", w)
	}
	if w.TickPeriodMs < 333 || w.TickPeriodMs > 334 {
		t.Fatalf("tick_period_ms=%v", w.TickPeriodMs)
	}
	b, _ := json.Marshal(w)
	if err := protocol.Validate(protocol.SchemaWelcome, b); err != nil {
		t.Fatalf("welcome schema: %v", err)
	}

	if _, resp := join(t, h, "c2", false); resp.Code != protocol.ErrWorldBusy {
		t.Fatalf("second editor: code=%q", resp.Code)
	}
	if _, resp := join(t, h, "c1", true); resp.Code != protocol.ErrConflict {
		t.Fatalf("duplicate id: code=%q", resp.Code)
	}
	if _, resp := join(t, h, "o1", true); resp.Code != "" {
		t.Fatalf("observer rejected: %s", resp.Code)
	}

	h.handleLeave("c1")
	if _, resp := join(t, h, "c3", false); resp.Code != "" {
		t.Fatalf("editor slot not released: %s", resp.Code)
	}
}

func TestHost_CommandsAckAndFrame(t *testing.T) {
	h := newTestHost(t)
	out, _ := join(t, h, "c1", false)

	place := cmd("K1", protocol.OpPlace)
	place.Cell, place.Kind, place.Dir = cellPtr(0, 0), "Conveyor", "E"
	again := place
	again.ID = "K2"
	outside := place
	outside.ID, outside.Cell = "K3", cellPtr(8, 0)
	badKind := place
	badKind.ID, badKind.Kind = "K4", "Furnace"

	h.StepFrame(0, []CmdEnvelope{
		{ClientID: "c1", Cmd: place},
		{ClientID: "c1", Cmd: again},
		{ClientID: "c1", Cmd: outside},
		{ClientID: "c1", Cmd: badKind},
		{ClientID: "c1", Cmd: cmd("K5", protocol.OpToggleRun)},
	})
	acks, frames := drain(t, out)
	if len(acks) != 5 {
		t.Fatalf("acks=%d", len(acks))
	}
	want := []struct {
		accepted bool
		code     string
	}{
		{true, ""},
		{false, protocol.ErrConflict},
		{false, protocol.ErrInvalidTarget},
		{false, protocol.ErrBadRequest},
		{true, ""},
	}
	for i, w := range want {
		if acks[i].Accepted != w.accepted || acks[i].Code != w.code {
			t.Fatalf("ack %d: %+v want %+v", i, acks[i], w)
		}
	}
	if len(frames) != 1 || !frames[0].Running || len(frames[0].Tiles) != 1 {
		t.Fatalf("frame: %+v", frames)
	}

	// Two ticks: the first ore spawns and rides the conveyor to (1,0).
	if n := h.StepFrame(700*time.Millisecond, nil); n != 2 {
		t.Fatalf("ticks fired=%d", n)
	}
	_, frames = drain(t, out)
	f := frames[len(frames)-1]
	if len(f.Items) != 1 || f.Items[0].Cell != [2]int{1, 0} || f.Items[0].Prev != [2]int{0, 0} {
		t.Fatalf("items: %+v", f.Items)
	}
	if f.Tick != 2 {
		t.Fatalf("tick=%d", f.Tick)
	}
	if m := h.Metrics(); m.Session.Totals.Spawned != 1 || m.Clients != 1 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestHost_EditorOps(t *testing.T) {
	h := newTestHost(t)
	out, _ := join(t, h, "c1", false)

	cur := cmd("A", protocol.OpCursor)
	cur.DX, cur.DY = 2, 1
	rot := cmd("B", protocol.OpRotate)
	rot.By = 1
	sel := cmd("C", protocol.OpSelect)
	sel.Kind = "smelter"
	setc := cmd("F", protocol.OpSetCursor)
	setc.Cell = cellPtr(5, 5)

	h.StepFrame(0, []CmdEnvelope{
		{ClientID: "c1", Cmd: cur},
		{ClientID: "c1", Cmd: rot},
		{ClientID: "c1", Cmd: sel},
		{ClientID: "c1", Cmd: cmd("D", protocol.OpCommit)},
		{ClientID: "c1", Cmd: cmd("E", protocol.OpCommit)},
		{ClientID: "c1", Cmd: setc},
		{ClientID: "c1", Cmd: cmd("G", protocol.OpModeRemove)},
		{ClientID: "c1", Cmd: cmd("H", protocol.OpCommit)},
		{ClientID: "c1", Cmd: rot},
		{ClientID: "c1", Cmd: cmd("I", protocol.OpCancel)},
		{ClientID: "c1", Cmd: cmd("J", "JUMP")},
	})
	acks, frames := drain(t, out)
	got := make([]string, 0, len(acks))
	for _, a := range acks {
		got = append(got, a.AckFor+":"+a.Code)
	}
	want := []string{"A:", "B:", "C:", "D:", "E:" + protocol.ErrConflict, "F:", "G:", "H:", "B:" + protocol.ErrConflict, "I:", "J:" + protocol.ErrBadRequest}
	if len(got) != len(want) {
		t.Fatalf("acks=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("acks=%v want %v", got, want)
		}
	}

	f := frames[len(frames)-1]
	if len(f.Tiles) != 1 || f.Tiles[0].Kind != "Smelter" || f.Tiles[0].Dir != "E" || f.Tiles[0].Cell != [2]int{2, 1} {
		t.Fatalf("tiles: %+v", f.Tiles)
	}
	if f.Editor.Mode != "IDLE" || f.Editor.Cursor != [2]int{5, 5} || f.Editor.Held != "Smelter" {
		t.Fatalf("editor: %+v", f.Editor)
	}
}

func TestHost_ObserverIsReadOnly(t *testing.T) {
	h := newTestHost(t)
	out, _ := join(t, h, "o1", true)
	h.StepFrame(0, []CmdEnvelope{{ClientID: "o1", Cmd: cmd("X", protocol.OpToggleRun)}})
	acks, frames := drain(t, out)
	if len(acks) != 1 || acks[0].Code != protocol.ErrNoPermission {
		t.Fatalf("acks: %+v", acks)
	}
	if len(frames) != 1 || frames[0].Running {
		t.Fatalf("frames: %+v", frames)
	}
}

func TestHost_RunLoop(t *testing.T) {
	h := newTestHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	out := make(chan []byte, 8)
	resp := make(chan JoinResponse, 1)
	h.Join() <- JoinRequest{ClientID: "c1", Name: "bot", Out: out, Resp: resp}
	if r := <-resp; r.Welcome.SessionID != "c1" {
		t.Fatalf("welcome: %+v", r)
	}
	h.Inbox() <- CmdEnvelope{ClientID: "c1", Cmd: cmd("R", protocol.OpToggleRun)}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case b := <-out:
			var f protocol.FrameMsg
			if err := json.Unmarshal(b, &f); err == nil && f.Type == protocol.TypeFrame && f.Running {
				if h.LatestFrame() == nil {
					t.Fatalf("latest frame not published")
				}
				cancel()
				if err := <-done; err != context.Canceled {
					t.Fatalf("run: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("no running frame observed")
		}
	}
}

type memAudit struct{ entries []AuditEntry }

func (m *memAudit) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestHost_AuditsCommands(t *testing.T) {
	h := newTestHost(t)
	au := &memAudit{}
	h.SetAuditLogger(au)
	join(t, h, "c1", false)
	join(t, h, "o1", true)

	h.StepFrame(0, []CmdEnvelope{
		{ClientID: "c1", Cmd: cmd("A", protocol.OpCommit)},
		{ClientID: "o1", Cmd: cmd("B", protocol.OpCommit)},
	})
	if len(au.entries) != 2 {
		t.Fatalf("entries=%d", len(au.entries))
	}
	if !au.entries[0].Accepted || au.entries[0].Op != protocol.OpCommit {
		t.Fatalf("entry 0: %+v", au.entries[0])
	}
	if au.entries[1].Accepted || au.entries[1].Code != protocol.ErrNoPermission {
		t.Fatalf("entry 1: %+v", au.entries[1])
	}
}
