package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mind-engage/videoquiz/internal/access"
	api "github.com/mind-engage/videoquiz/internal/api/http"
	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/audit"
	"github.com/mind-engage/videoquiz/internal/config"
	"github.com/mind-engage/videoquiz/internal/db"
	"github.com/mind-engage/videoquiz/internal/logging"
	"github.com/mind-engage/videoquiz/internal/metrics"
	"github.com/mind-engage/videoquiz/internal/quiz"
	"github.com/mind-engage/videoquiz/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Attempts ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, dbh, err := openStore(openCtx, cfg)
	if err != nil {
		return err
	}
	if dbh != nil {
		defer dbh.Close()
	}

	// --- Quiz content ---
	blobs, err := openContent(cfg)
	if err != nil {
		return err
	}
	quizzes := quiz.NewReader(blobs, log.Named("quiz"))

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []attempt.Option{attempt.WithObserver(m)}
	var events *audit.EventRepo
	if dbh != nil {
		events = audit.NewEventRepo(dbh, db.Driver(cfg.DBDriver), cfg.SiteID)
		opts = append(opts, attempt.WithAuditor(events))
	}
	svc := attempt.NewService(store, quizzes, log.Named("attempt"), opts...)

	gate := access.NewGate(cfg.ViewKey, cfg.DeleteKey)
	if !gate.View.Configured() {
		log.Warn("VIEW_KEY not set; instructor views will refuse every request")
	}
	if !gate.Delete.Configured() {
		log.Warn("DELETE_KEY not set; deletes will refuse every request")
	}

	deps := api.Deps{
		Attempts: svc,
		Quizzes:  quizzes,
		Gate:     gate,
		Metrics:  m,
		Log:      log.Named("http"),
		Frontend: api.Frontend{
			Dir:         cfg.FrontendDir,
			StaticRoots: cfg.StaticDirs,
		},
		CORSOrigins:      cfg.CORSOrigins,
		SubmitRatePerMin: cfg.SubmitRatePerMin,
		TrustProxy:       cfg.TrustProxy,
	}
	if insp, ok := store.(attempt.Inspector); ok {
		deps.Inspector = insp
	}
	if events != nil {
		deps.Audit = events
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: api.NewRouter(deps), ReadHeaderTimeout: 10 * time.Second}

	log.Info("listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("db", cfg.DBDriver),
		zap.String("db_path", dbLocation(cfg)),
		zap.String("content", quizzes.Location()),
		zap.String("frontend", cfg.FrontendDir),
		zap.Strings("static", cfg.StaticDirs))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	return srv.Shutdown(shutCtx)
}

func openStore(ctx context.Context, cfg config.Config) (attempt.Store, *sql.DB, error) {
	driver := db.Driver(cfg.DBDriver)
	if driver == db.DriverMemory {
		return attempt.NewInMemoryStore(), nil, nil
	}

	dsn := cfg.DBDSN
	if driver == db.DriverSQLite {
		var err error
		if dsn, err = db.SQLiteDSN(cfg.DBPath); err != nil {
			return nil, nil, err
		}
	}
	dbh, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	store, err := attempt.NewSQLStore(ctx, dbh, driver, dbLocation(cfg))
	if err != nil {
		_ = dbh.Close()
		return nil, nil, err
	}
	return store, dbh, nil
}

// dbLocation names the database for logs and diagnostics, never with
// credentials.
func dbLocation(cfg config.Config) string {
	switch db.Driver(cfg.DBDriver) {
	case db.DriverPostgres:
		return db.RedactDSN(cfg.DBDSN)
	case db.DriverMemory:
		return ":memory:"
	default:
		return cfg.DBPath
	}
}

func openContent(cfg config.Config) (storage.BlobStore, error) {
	switch cfg.ContentDriver {
	case "minio":
		return storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Prefix:    cfg.Minio.Prefix,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return storage.NewFSStore(cfg.ContentDir)
	}
}
