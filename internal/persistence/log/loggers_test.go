package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/host"
	"gridfactory.dev/internal/sim/level"
)

func TestTickLogger_RotatesHourlyAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	tl := NewTickLogger(dir)
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	tl.w.now = func() time.Time { return clock }

	for i := uint64(0); i < 3; i++ {
		if err := tl.WriteTick(factory.TickLogEntry{Tick: i, Running: true, Digest: "d"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	clock = clock.Add(2 * time.Minute)
	if err := tl.WriteTick(factory.TickLogEntry{Tick: 3, Commands: []factory.Command{{Op: factory.OpToggleRun}}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "events"), "events")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "events-2026-03-01-10.jsonl.zst" || filepath.Base(files[1]) != "events-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files: %v", files)
	}

	entries, err := ReadTickLog(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries=%d", len(entries))
	}
	for i, e := range entries {
		if e.Tick != uint64(i) {
			t.Fatalf("entry %d tick=%d", i, e.Tick)
		}
	}
	if len(entries[3].Commands) != 1 || entries[3].Commands[0].Op != factory.OpToggleRun {
		t.Fatalf("commands: %+v", entries[3].Commands)
	}
}

func TestTickLogger_RecordsSessionRun(t *testing.T) {
	dir := t.TempDir()
	tl := NewTickLogger(dir)
	sess, err := factory.NewSession(level.Default().ToConfig())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	sess.SetTickLogger(tl)
	sess.Place(factory.Cell{Col: 0, Row: 0}, factory.TileConveyor, factory.East)
	sess.ToggleRunning()
	for i := 0; i < 5; i++ {
		sess.StepOnce()
	}
	_ = tl.Close()

	entries, err := ReadTickLog(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("entries=%d", len(entries))
	}
	if entries[4].Digest != sess.Digest() {
		t.Fatalf("digest mismatch")
	}
}

func TestAuditLogger_Writes(t *testing.T) {
	dir := t.TempDir()
	al := NewAuditLogger(dir)
	if err := al.WriteAudit(host.AuditEntry{Tick: 1, ClientID: "c", Op: "PLACE", Accepted: true}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = al.Close()
	files, err := ListFiles(filepath.Join(dir, "audit"), "audit")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	n := 0
	if err := ScanFile(files[0], func([]byte) error { n++; return nil }); err != nil || n != 1 {
		t.Fatalf("scan n=%d err=%v", n, err)
	}
}

func TestRunMeta_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	lv := level.Default()
	in := RunMeta{RunID: "r1", StartedAt: time.Unix(100, 0).UTC(), Level: lv, LevelDigest: lv.Digest()}
	if err := WriteRunMeta(dir, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadRunMeta(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.RunID != "r1" || out.Level.Digest() != lv.Digest() || !out.StartedAt.Equal(in.StartedAt) {
		t.Fatalf("meta: %+v", out)
	}
	if _, err := ReadRunMeta(t.TempDir()); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
