package main

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"groupelive/internal/app/avis"
	"groupelive/internal/app/concerts"
	"groupelive/internal/app/contacts"
	"groupelive/internal/app/groupes"
	"groupelive/internal/app/inscriptions"
	"groupelive/internal/app/users"
	"groupelive/internal/auth"
	"groupelive/internal/httpapi"
	"groupelive/internal/mailer"
	"groupelive/internal/ratelimit"
	"groupelive/internal/store"
	"groupelive/shared/middleware"
)

func newHTTPHandler(cfg Config, dataStore *store.Store, sessions *auth.Sessions, mail mailer.Mailer) http.Handler {
	userSvc := users.New(dataStore)
	inscriptionSvc := inscriptions.New(dataStore, mail, cfg.BaseURL)
	concertSvc := concerts.New(dataStore)
	avisSvc := avis.New(dataStore)
	groupeSvc := groupes.New(dataStore)
	contactSvc := contacts.New(dataStore)

	server := httpapi.New(userSvc, inscriptionSvc, concertSvc, avisSvc, groupeSvc, contactSvc, sessions, cfg.SecureCookies)

	server.SetLimiter(ratelimit.NewMapLimiter(ratelimit.Config{
		PerMinute:  30,
		Burst:      10,
		SweepAfter: 10 * time.Minute,
	}))

	handler := server.Routes()
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler
}

func newMailer(cfg Config) mailer.Mailer {
	if cfg.SMTPAddr == "" {
		return mailer.LogOnly{}
	}
	return &mailer.SMTP{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
}
