package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/xid"

	persistlog "gridfactory.dev/internal/persistence/log"
	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/host"
	"gridfactory.dev/internal/sim/level"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "http listen address")
		levelPath = flag.String("level", "./configs/level.yaml", "level file (empty for the built-in default)")
		dataDir   = flag.String("data", "./data", "runtime data directory")
		envFile   = flag.String("env", ".env", "dotenv file to load if present")
		disableDB = flag.Bool("disable_db", false, "disable the sqlite tick/audit index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if p := strings.TrimSpace(*envFile); p != "" {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			logger.Printf("load %s: %v", p, err)
		}
	}

	lv, err := level.Load(*levelPath)
	if err != nil {
		logger.Fatalf("load level: %v", err)
	}
	sess, err := factory.NewSession(lv.ToConfig())
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	runID := xid.New().String()
	runDir := filepath.Join(*dataDir, "runs", runID)
	startedAt := time.Now().UTC()
	if err := persistlog.WriteRunMeta(runDir, persistlog.RunMeta{
		RunID:       runID,
		StartedAt:   startedAt,
		Level:       lv,
		LevelDigest: lv.Digest(),
	}); err != nil {
		logger.Fatalf("write run meta: %v", err)
	}

	// Optional read-model index; the simulation never reads it back.
	idx, err := openRuntimeIndex(runDir, runID, *disableDB || envBool("FACTORY_DISABLE_DB", false), logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.RecordRun(lv, startedAt); err != nil {
			logger.Printf("index backend: record run: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(runDir)
	auditLog := persistlog.NewAuditLogger(runDir)
	defer tickLog.Close()
	defer auditLog.Close()

	h := host.New(lv, sess, log.New(os.Stdout, "[host] ", log.LstdFlags|log.Lmicroseconds))
	if idx != nil {
		sess.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		h.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	} else {
		sess.SetTickLogger(tickLog)
		h.SetAuditLogger(auditLog)
	}
	logger.Printf("run=%s level=%q grid=%dx%d tick=%s frame=%s", runID, lv.Name, lv.WorldSize[0], lv.WorldSize[1], lv.TickPeriod(), lv.FramePeriod())

	ctx, cancel := signalContext()
	defer cancel()

	hostDone := make(chan struct{})
	go func() {
		defer close(hostDone)
		if err := h.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("host stopped: %v", err)
		}
	}()

	enableAdminHTTP := envBool("FACTORY_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	if !enableAdminHTTP {
		logger.Printf("admin endpoints disabled (FACTORY_ENABLE_ADMIN_HTTP=false)")
	}
	r := newRouter(routerConfig{
		Host:        h,
		Index:       idx,
		RunID:       runID,
		EnableAdmin: enableAdminHTTP,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	// Let the host finish its last frame before the loggers close.
	<-hostDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a factory.TickLogger
	b factory.TickLogger
}

func (m multiTickLogger) WriteTick(entry factory.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a host.AuditLogger
	b host.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry host.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
