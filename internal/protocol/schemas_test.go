package protocol_test

import (
	"encoding/json"
	"testing"

	"gridfactory.dev/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(name string, raw string) {
		t.Helper()
		if err := protocol.Validate(name, []byte(raw)); err != nil {
			t.Fatalf("validate %s: %v", name, err)
		}
	}

	validate(protocol.SchemaHello, `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"bot1",
	  "max_queue":8
	}`)

	validate(protocol.SchemaWelcome, `{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"c0ffee",
	  "level":"default",
	  "level_digest":"deadbeef",
	  "grid":[8,8],
	  "tick_period_ms":333.333333,
	  "frame_rate_hz":60,
	  "menu":["Conveyor","Smelter"],
	  "item_kinds":["ore","bar"],
	  "inputs":[{"cell":[0,0],"every":2,"item":"ore"}]
	}`)

	validate(protocol.SchemaCmd, `{"type":"CMD","protocol_version":"1.0","id":"K1","op":"PLACE","cell":[1,0],"kind":"Conveyor","dir":"E"}`)
	validate(protocol.SchemaCmd, `{"type":"CMD","protocol_version":"1.0","id":"K2","op":"CURSOR","dx":1}`)
	validate(protocol.SchemaCmd, `{"type":"CMD","protocol_version":"1.0","id":"K3","op":"TOGGLE_RUN"}`)

	validate(protocol.SchemaAck, `{"type":"ACK","protocol_version":"1.0","ack_for":"K1","accepted":false,"code":"E_CONFLICT","tick":3}`)

	validate(protocol.SchemaFrame, `{
	  "type":"FRAME",
	  "protocol_version":"1.0",
	  "tick":4,
	  "running":true,
	  "alpha":0.25,
	  "grid":[8,8],
	  "tiles":[{"cell":[0,0],"kind":"Conveyor","dir":"E"}],
	  "items":[{"id":1,"kind":"ore","cell":[1,0],"prev":[0,0]}],
	  "editor":{"mode":"PLACING","cursor":[0,0],"held":"Conveyor","dir":"N","selected":0,"menu":["Conveyor","Smelter"]},
	  "stats":{"spawned":1,"stalled":0,"moved":1,"blocked":0,"converted":0}
	}`)
}

func TestSchemas_RejectBadCmd(t *testing.T) {
	bad := []string{
		`{"type":"CMD","protocol_version":"1.0","id":"K1","op":"FLY"}`,
		`{"type":"CMD","protocol_version":"1.0","op":"COMMIT"}`,
		`{"type":"CMD","protocol_version":"1.0","id":"K1","op":"PLACE","cell":[1,0],"kind":"Conveyor"}`,
		`{"type":"CMD","protocol_version":"1.0","id":"K1","op":"REMOVE"}`,
		`{"type":"CMD","protocol_version":"1.0","id":"K1","op":"ROTATE","by":9}`,
		`{"type":"CMD","protocol_version":"1.0","id":"K1","op":"SET_CURSOR","cell":[1]}`,
	}
	for _, raw := range bad {
		if err := protocol.Validate(protocol.SchemaCmd, []byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestSchemas_MessagesRoundTripThroughSchema(t *testing.T) {
	cell := [2]int{2, 3}
	msgs := map[string]any{
		protocol.SchemaHello: protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "viewer", Observer: true},
		protocol.SchemaCmd:   protocol.CmdMsg{Type: protocol.TypeCmd, ProtocolVersion: protocol.Version, ID: "C9", Op: protocol.OpRemove, Cell: &cell},
		protocol.SchemaAck:   protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: "C9", Accepted: true, Tick: 12},
		protocol.SchemaFrame: protocol.FrameMsg{
			Type:            protocol.TypeFrame,
			ProtocolVersion: protocol.Version,
			Grid:            [2]int{4, 4},
			Tiles:           []protocol.TileRef{},
			Items:           []protocol.ItemRef{},
			Editor:          protocol.EditorRef{Mode: "IDLE", Held: "Smelter", Dir: "W", Selected: 1},
		},
	}
	for name, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := protocol.Validate(name, b); err != nil {
			t.Fatalf("%s: %v\n%s", name, err, b)
		}
	}
}

func TestSchemas_Unknown(t *testing.T) {
	if _, err := protocol.Schema("nope.schema.json"); err == nil {
		t.Fatalf("expected error for unknown schema")
	}
}
