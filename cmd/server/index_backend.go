package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gridfactory.dev/internal/persistence/indexdb"
)

func openRuntimeIndex(runDir, runID string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		logger.Printf("index backend disabled")
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("FACTORY_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := strings.TrimSpace(os.Getenv("FACTORY_INDEX_PATH"))
		if dbPath == "" {
			dbPath = filepath.Join(runDir, "index", "run.sqlite")
		}
		return indexdb.OpenSQLite(dbPath, runID)
	default:
		return nil, fmt.Errorf("unsupported FACTORY_INDEX_BACKEND: %s", backend)
	}
}
