package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"gridfactory.dev/internal/protocol"
	"gridfactory.dev/internal/sim/host"
)

type Server struct {
	host *host.Host
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(h *host.Host, logger *log.Logger) *Server {
	s := &Server{
		host: h,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var c protocol.CmdMsg
			if err := json.Unmarshal(msg, &c); err != nil {
				continue
			}
			if c.ProtocolVersion != protocol.Version {
				s.rejectCmd(out, c.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			if err := protocol.Validate(protocol.SchemaCmd, msg); err != nil {
				s.rejectCmd(out, c.ID, protocol.ErrProtoBadRequest, err.Error())
				continue
			}
			select {
			case s.host.Inbox() <- host.CmdEnvelope{ClientID: clientID, Cmd: c}:
			default:
				s.rejectCmd(out, c.ID, protocol.ErrWorldBusy, "inbox full")
			}
		}

		// Cleanup.
		s.host.Leave() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return "", nil
	}
	if err := protocol.Validate(protocol.SchemaHello, msg); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return "", nil
	}
	if strings.TrimSpace(hello.ClientName) == "" {
		hello.ClientName = "client"
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)
	clientID = xid.New().String()

	respCh := make(chan host.JoinResponse, 1)
	select {
	case s.host.Join() <- host.JoinRequest{
		ClientID: clientID,
		Name:     hello.ClientName,
		Observer: hello.Observer,
		Out:      out,
		Resp:     respCh,
	}:
	default:
		closeWith(conn, websocket.CloseTryAgainLater, "server busy")
		return "", nil
	}
	resp := <-respCh
	if resp.Code != "" {
		closeWith(conn, websocket.CloseTryAgainLater, resp.Code)
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.host.Leave() <- clientID
		return "", nil
	}
	if s.log != nil {
		s.log.Printf("ws client %s (%s) connected observer=%v", clientID, hello.ClientName, hello.Observer)
	}
	return clientID, out
}

func (s *Server) rejectCmd(out chan []byte, id, code, msg string) {
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Accepted:        false,
		Code:            code,
		Message:         msg,
		Tick:            s.host.CurrentTick(),
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
