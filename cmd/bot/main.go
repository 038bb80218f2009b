package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"gridfactory.dev/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		length   = flag.Int("length", 4, "number of tiles in the line (the last one is a smelter)")
		observer = flag.Bool("observer", false, "join as an observer and only log frames")
		every    = flag.Uint64("log_every", 3, "log a frame summary every N ticks")
		maxTicks = flag.Uint64("ticks", 0, "exit after this many ticks (0 = run until interrupted)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Observer:        *observer,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	var (
		startTick  uint64
		haveStart  bool
		lastLogged uint64
	)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok && ce.Code != websocket.CloseNormalClosure {
				logger.Printf("closed: code=%d text=%q", ce.Code, ce.Text)
			}
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s level=%q grid=%dx%d tick_ms=%.1f inputs=%d",
				w.SessionID, w.Level, w.Grid[0], w.Grid[1], w.TickPeriodMs, len(w.Inputs))
			if *observer {
				continue
			}
			for _, cmd := range buildScript(w, *length) {
				if err := conn.WriteJSON(cmd); err != nil {
					logger.Fatalf("send CMD: %v", err)
				}
			}

		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			if !a.Accepted {
				logger.Printf("ACK %s rejected code=%s msg=%q", a.AckFor, a.Code, a.Message)
			}

		case protocol.TypeFrame:
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			if !haveStart {
				startTick, haveStart = f.Tick, true
			}
			if *every > 0 && f.Tick != lastLogged && f.Tick%*every == 0 {
				lastLogged = f.Tick
				logger.Printf("FRAME tick=%d running=%v tiles=%d items=%d bars=%d moved=%d blocked=%d",
					f.Tick, f.Running, len(f.Tiles), len(f.Items), countKind(f.Items, "bar"), f.Stats.Moved, f.Stats.Blocked)
			}
			if *maxTicks > 0 && f.Tick-startTick >= *maxTicks {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
		}
	}
}
