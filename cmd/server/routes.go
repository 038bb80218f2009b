package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"gridfactory.dev/internal/persistence/indexdb"
	"gridfactory.dev/internal/sim/host"
	"gridfactory.dev/internal/transport/ws"
)

type routerConfig struct {
	Host        *host.Host
	Index       *indexdb.SQLiteIndex
	RunID       string
	EnableAdmin bool
	Logger      *log.Logger
}

func newRouter(cfg routerConfig) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", metricsHandler(cfg.Host, cfg.Index)).Methods(http.MethodGet)
	r.HandleFunc("/v1/ws", ws.NewServer(cfg.Host, cfg.Logger).Handler())

	if cfg.EnableAdmin {
		// Local-only; reads the published metrics and never touches the session.
		admin := r.PathPrefix("/admin/v1").Subrouter()
		admin.Use(loopbackOnly)
		admin.HandleFunc("/state", stateHandler(cfg.Host, cfg.Index, cfg.RunID)).Methods(http.MethodGet)
	}
	return r
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

type stateResponse struct {
	RunID       string         `json:"run_id"`
	Level       string         `json:"level"`
	LevelDigest string         `json:"level_digest"`
	Tick        uint64         `json:"tick"`
	Metrics     host.Metrics   `json:"metrics"`
	Index       *indexdb.Stats `json:"index,omitempty"`
}

func stateHandler(h *host.Host, idx *indexdb.SQLiteIndex, runID string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		lv := h.Level()
		resp := stateResponse{
			RunID:       runID,
			Level:       lv.Name,
			LevelDigest: lv.Digest(),
			Tick:        h.CurrentTick(),
			Metrics:     h.Metrics(),
		}
		if idx != nil {
			st := idx.Stats()
			resp.Index = &st
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func metricsHandler(h *host.Host, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := h.Metrics()
		s := m.Session
		tick := h.CurrentTick()
		if s.Tick != 0 {
			tick = s.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP gridfactory_tick Current logical tick.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_tick gauge\n")
		fmt.Fprintf(rw, "gridfactory_tick %d\n", tick)

		fmt.Fprintf(rw, "# HELP gridfactory_running Whether the factory is running (0/1).\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_running gauge\n")
		fmt.Fprintf(rw, "gridfactory_running %d\n", boolInt(s.Running))

		fmt.Fprintf(rw, "# HELP gridfactory_tiles Placed tile count.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_tiles gauge\n")
		fmt.Fprintf(rw, "gridfactory_tiles %d\n", s.Tiles)

		fmt.Fprintf(rw, "# HELP gridfactory_items Live item count.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_items gauge\n")
		fmt.Fprintf(rw, "gridfactory_items %d\n", s.Items)

		fmt.Fprintf(rw, "# HELP gridfactory_flow_total Cumulative flow outcomes.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_flow_total counter\n")
		fmt.Fprintf(rw, "gridfactory_flow_total{outcome=%q} %d\n", "spawned", s.Totals.Spawned)
		fmt.Fprintf(rw, "gridfactory_flow_total{outcome=%q} %d\n", "stalled", s.Totals.Stalled)
		fmt.Fprintf(rw, "gridfactory_flow_total{outcome=%q} %d\n", "moved", s.Totals.Moved)
		fmt.Fprintf(rw, "gridfactory_flow_total{outcome=%q} %d\n", "blocked", s.Totals.Blocked)
		fmt.Fprintf(rw, "gridfactory_flow_total{outcome=%q} %d\n", "converted", s.Totals.Converted)

		fmt.Fprintf(rw, "# HELP gridfactory_spawner_total Per-spawner attempts by outcome.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_spawner_total counter\n")
		for _, sp := range s.Spawners {
			cell := sp.Cell.String()
			fmt.Fprintf(rw, "gridfactory_spawner_total{cell=%q,kind=%q,outcome=%q} %d\n", cell, sp.Kind, "spawned", sp.Spawned)
			fmt.Fprintf(rw, "gridfactory_spawner_total{cell=%q,kind=%q,outcome=%q} %d\n", cell, sp.Kind, "stalled", sp.Stalled)
		}

		fmt.Fprintf(rw, "# HELP gridfactory_clients Connected clients.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_clients gauge\n")
		fmt.Fprintf(rw, "gridfactory_clients{role=%q} %d\n", "editor", m.Clients-m.Observers)
		fmt.Fprintf(rw, "gridfactory_clients{role=%q} %d\n", "observer", m.Observers)

		fmt.Fprintf(rw, "# HELP gridfactory_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_queue_depth gauge\n")
		fmt.Fprintf(rw, "gridfactory_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "gridfactory_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "gridfactory_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)

		fmt.Fprintf(rw, "# HELP gridfactory_frame_ms Last host frame duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_frame_ms gauge\n")
		fmt.Fprintf(rw, "gridfactory_frame_ms %.3f\n", m.FrameMS)

		writeIndexMetrics(rw, idx)
		writeProcessMetrics(rw)
	}
}

func writeIndexMetrics(rw http.ResponseWriter, idx *indexdb.SQLiteIndex) {
	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(rw, "# HELP gridfactory_index_queue_depth SQLite index write queue depth.\n")
	fmt.Fprintf(rw, "# TYPE gridfactory_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "gridfactory_index_queue_depth %d\n", st.QueueDepth)

	fmt.Fprintf(rw, "# HELP gridfactory_index_queue_capacity SQLite index write queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE gridfactory_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "gridfactory_index_queue_capacity %d\n", st.QueueCapacity)

	fmt.Fprintf(rw, "# HELP gridfactory_index_dropped_total Records dropped because the index queue was full.\n")
	fmt.Fprintf(rw, "# TYPE gridfactory_index_dropped_total counter\n")
	fmt.Fprintf(rw, "gridfactory_index_dropped_total{kind=%q} %d\n", "tick", st.DropTickTotal)
	fmt.Fprintf(rw, "gridfactory_index_dropped_total{kind=%q} %d\n", "audit", st.DropAuditTotal)
}

func writeProcessMetrics(rw http.ResponseWriter) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		fmt.Fprintf(rw, "# HELP gridfactory_process_rss_bytes Resident set size.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_process_rss_bytes gauge\n")
		fmt.Fprintf(rw, "gridfactory_process_rss_bytes %d\n", mem.RSS)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		fmt.Fprintf(rw, "# HELP gridfactory_process_cpu_percent CPU usage since process start.\n")
		fmt.Fprintf(rw, "# TYPE gridfactory_process_cpu_percent gauge\n")
		fmt.Fprintf(rw, "gridfactory_process_cpu_percent %.3f\n", cpu)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
