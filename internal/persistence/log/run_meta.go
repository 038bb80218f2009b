package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gridfactory.dev/internal/sim/level"
)

const runMetaFile = "run.json"

// RunMeta identifies a recorded run: which level the tick log belongs to.
type RunMeta struct {
	RunID       string      `json:"run_id"`
	StartedAt   time.Time   `json:"started_at"`
	Level       level.Level `json:"level"`
	LevelDigest string      `json:"level_digest"`
}

func WriteRunMeta(runDir string, m RunMeta) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(runDir, runMetaFile+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(runDir, runMetaFile))
}

func ReadRunMeta(runDir string) (RunMeta, error) {
	var m RunMeta
	b, err := os.ReadFile(filepath.Join(runDir, runMetaFile))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
