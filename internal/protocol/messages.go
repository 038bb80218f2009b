package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// Observers receive frames but may not send CMD.
	Observer bool `json:"observer,omitempty"`
	MaxQueue int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	Level           string     `json:"level"`
	LevelDigest     string     `json:"level_digest"`
	Grid            [2]int     `json:"grid"`
	TickPeriodMs    float64    `json:"tick_period_ms"`
	FrameRateHz     int        `json:"frame_rate_hz"`
	Menu            []string   `json:"menu"`
	ItemKinds       []string   `json:"item_kinds"`
	Inputs          []InputRef `json:"inputs"`
}

type InputRef struct {
	Cell  [2]int `json:"cell"`
	Every int    `json:"every"`
	Item  string `json:"item"`
}

// CMD ops.
const (
	OpCursor     = "CURSOR"
	OpSetCursor  = "SET_CURSOR"
	OpSelect     = "SELECT"
	OpRotate     = "ROTATE"
	OpCommit     = "COMMIT"
	OpCancel     = "CANCEL"
	OpModeRemove = "MODE_REMOVE"
	OpModePlace  = "MODE_PLACE"
	OpToggleRun  = "TOGGLE_RUN"
	OpPlace      = "PLACE"
	OpRemove     = "REMOVE"
)

// CMD (client -> server). Which fields are read depends on Op.
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Op              string  `json:"op"`
	DX              int     `json:"dx,omitempty"`
	DY              int     `json:"dy,omitempty"`
	By              int     `json:"by,omitempty"`
	Cell            *[2]int `json:"cell,omitempty"`
	Kind            string  `json:"kind,omitempty"`
	Dir             string  `json:"dir,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick"`
}

// FRAME (server -> client), one per host frame.
type FrameMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	Running         bool      `json:"running"`
	Alpha           float64   `json:"alpha"`
	Grid            [2]int    `json:"grid"`
	Tiles           []TileRef `json:"tiles"`
	Items           []ItemRef `json:"items"`
	Editor          EditorRef `json:"editor"`
	Stats           StatsRef  `json:"stats"`
}

type TileRef struct {
	Cell [2]int `json:"cell"`
	Kind string `json:"kind"`
	Dir  string `json:"dir"`
}

type ItemRef struct {
	ID   uint64 `json:"id"`
	Kind string `json:"kind"`
	Cell [2]int `json:"cell"`
	Prev [2]int `json:"prev"`
}

type EditorRef struct {
	Mode     string   `json:"mode"`
	Cursor   [2]int   `json:"cursor"`
	Held     string   `json:"held"`
	Dir      string   `json:"dir"`
	Selected int      `json:"selected"`
	Menu     []string `json:"menu"`
}

type StatsRef struct {
	Spawned   int `json:"spawned"`
	Stalled   int `json:"stalled"`
	Moved     int `json:"moved"`
	Blocked   int `json:"blocked"`
	Converted int `json:"converted"`
}
