package host

// AuditEntry records one client command and its outcome.
type AuditEntry struct {
	Tick     uint64  `json:"tick"`
	ClientID string  `json:"client_id"`
	CmdID    string  `json:"cmd_id"`
	Op       string  `json:"op"`
	Cell     *[2]int `json:"cell,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Dir      string  `json:"dir,omitempty"`
	Accepted bool    `json:"accepted"`
	Code     string  `json:"code,omitempty"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

func (h *Host) SetAuditLogger(l AuditLogger) { h.auditLogger = l }
