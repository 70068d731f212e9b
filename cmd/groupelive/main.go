package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groupelive/internal/app/concerts"
	"groupelive/internal/auth"
	"groupelive/internal/store"
	"groupelive/shared/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobalLogger(logger)

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(err, "database unavailable")
	}
	defer db.Close()

	dataStore := store.New(db)

	sessions, err := auth.NewSessions(cfg.JWTSecret)
	if err != nil {
		logger.Fatal(err, "session setup failed")
	}

	go markPastConcerts(dataStore, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: newHTTPHandler(cfg, dataStore, sessions, newMailer(cfg)),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API available at http://localhost" + cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal(err, "server error")
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(err, "shutdown incomplete")
		}
	}
}

// markPastConcerts periodically flips published concerts whose date
// has passed to PAST.
func markPastConcerts(dataStore *store.Store, logger *logging.Logger) {
	svc := concerts.New(dataStore)
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for ; ; <-ticker.C {
		n, err := svc.MarkPast(context.Background(), time.Now())
		if err != nil {
			logger.Error(err, "mark past concerts failed")
			continue
		}
		if n > 0 {
			logger.Info("marked concerts as past")
		}
	}
}
