package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/driftgate/internal/config"
	"github.com/Strob0t/driftgate/internal/middleware"
)

// MountRoutes registers the callback, ingestion and health routes on r.
//
// The callback route checks the retry indicator before the signature, so
// platform redeliveries are answered without reading the body.
func MountRoutes(r chi.Router, h *Handlers, cfg *config.Config) {
	r.Get("/health", h.Health)

	r.With(
		middleware.RetryShortCircuit,
		middleware.Signature(cfg.Slack.SigningSecret, cfg.Slack.ReplayWindow),
	).Post(cfg.Server.WebhookPath, h.HandleInteraction)

	r.With(middleware.BearerToken(cfg.Ingest.Token)).
		Post(cfg.Server.IngestPath, h.HandleIngest)
}
