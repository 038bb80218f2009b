package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "gridfactory.dev/internal/persistence/log"
	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/level"
)

func main() {
	var (
		runDir    = flag.String("run", "", "run directory containing run.json and events/")
		levelPath = flag.String("level", "", "level file (default: the level recorded in run.json)")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if strings.TrimSpace(*runDir) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	lv, err := resolveLevel(*runDir, *levelPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "level:", err)
		os.Exit(1)
	}
	sess, err := factory.NewSession(lv.ToConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "session:", err)
		os.Exit(1)
	}

	entries, err := persistlog.ReadTickLog(*runDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read tick log:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no tick entries found in", *runDir)
		os.Exit(1)
	}

	checked, err := verify(sess, entries, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: level=%q checked=%d ticks session_tick=%d digest=%s\n",
		lv.Name, checked, sess.CurrentTick(), sess.Digest())
}

// resolveLevel prefers an explicit level file and falls back to the level
// recorded with the run. A recorded digest that disagrees is an error.
func resolveLevel(runDir, levelPath string) (level.Level, error) {
	meta, metaErr := persistlog.ReadRunMeta(runDir)
	if strings.TrimSpace(levelPath) == "" {
		if metaErr != nil {
			return level.Level{}, fmt.Errorf("read run meta: %w", metaErr)
		}
		lv := meta.Level
		lv.Normalize()
		if err := lv.Validate(); err != nil {
			return level.Level{}, err
		}
		return lv, nil
	}
	lv, err := level.Load(levelPath)
	if err != nil {
		return level.Level{}, err
	}
	if metaErr == nil && meta.LevelDigest != "" && meta.LevelDigest != lv.Digest() {
		return level.Level{}, fmt.Errorf("level digest mismatch: run=%s file=%s", meta.LevelDigest, lv.Digest())
	}
	return lv, nil
}
