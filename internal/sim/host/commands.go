package host

import (
	"fmt"

	"gridfactory.dev/internal/protocol"
	"gridfactory.dev/internal/sim/factory"
)

func (h *Host) applyCmd(env CmdEnvelope) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          env.Cmd.ID,
		Tick:            h.sess.CurrentTick(),
	}
	c := h.clients[env.ClientID]
	switch {
	case c == nil:
		return reject(ack, protocol.ErrBadRequest, "unknown client")
	case c.observer:
		return reject(ack, protocol.ErrNoPermission, "observer clients are read-only")
	}

	code, msg := h.dispatch(env.Cmd)
	if code != "" {
		return reject(ack, code, msg)
	}
	ack.Accepted = true
	return ack
}

func reject(ack protocol.AckMsg, code, msg string) protocol.AckMsg {
	ack.Accepted = false
	ack.Code = code
	ack.Message = msg
	return ack
}

// dispatch runs one editor command and returns an error code, or "" on
// success.
func (h *Host) dispatch(cmd protocol.CmdMsg) (string, string) {
	ed := h.sess.Editor()
	switch cmd.Op {
	case protocol.OpCursor:
		ed.Move(cmd.DX, cmd.DY)
	case protocol.OpSetCursor:
		if cmd.Cell == nil {
			return protocol.ErrBadRequest, "missing cell"
		}
		ed.SetCursor(factory.CellFromArray(*cmd.Cell))
	case protocol.OpSelect:
		kind, err := factory.ParseTileKind(cmd.Kind)
		if err != nil {
			return protocol.ErrBadRequest, err.Error()
		}
		ed.Select(kind)
	case protocol.OpRotate:
		if cmd.By == 0 {
			return protocol.ErrBadRequest, "by must be non-zero"
		}
		if !ed.Rotate(cmd.By) {
			return protocol.ErrConflict, "rotate requires PLACING mode"
		}
	case protocol.OpCommit:
		mode, cur := ed.Mode(), ed.Cursor()
		if !ed.Commit() && mode == factory.ModePlacing {
			return protocol.ErrConflict, fmt.Sprintf("cell %s occupied", cur)
		}
	case protocol.OpCancel:
		ed.Cancel()
	case protocol.OpModeRemove:
		ed.EnterRemoving()
	case protocol.OpModePlace:
		ed.EnterPlacing()
	case protocol.OpToggleRun:
		running := ed.ToggleRun()
		h.log.Printf("factory running=%v tick=%d", running, h.sess.CurrentTick())
	case protocol.OpPlace:
		if cmd.Cell == nil {
			return protocol.ErrBadRequest, "missing cell"
		}
		kind, err := factory.ParseTileKind(cmd.Kind)
		if err != nil {
			return protocol.ErrBadRequest, err.Error()
		}
		dir, err := factory.ParseDirection(cmd.Dir)
		if err != nil {
			return protocol.ErrBadRequest, err.Error()
		}
		c := factory.CellFromArray(*cmd.Cell)
		if !h.inBounds(c) {
			return protocol.ErrInvalidTarget, fmt.Sprintf("cell %s out of bounds", c)
		}
		if !h.sess.Place(c, kind, dir) {
			return protocol.ErrConflict, fmt.Sprintf("cell %s occupied", c)
		}
	case protocol.OpRemove:
		if cmd.Cell == nil {
			return protocol.ErrBadRequest, "missing cell"
		}
		c := factory.CellFromArray(*cmd.Cell)
		if !h.inBounds(c) {
			return protocol.ErrInvalidTarget, fmt.Sprintf("cell %s out of bounds", c)
		}
		h.sess.Remove(c)
	default:
		return protocol.ErrBadRequest, fmt.Sprintf("unknown op %q", cmd.Op)
	}
	return "", ""
}

func (h *Host) inBounds(c factory.Cell) bool {
	return c.Col >= 0 && c.Col < h.sess.Width() && c.Row >= 0 && c.Row < h.sess.Height()
}
