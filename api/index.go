package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/certlink/pkg/adapters/events"
	"github.com/wadjakorntonsri/certlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/certlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/certlink/pkg/config"
	"github.com/wadjakorntonsri/certlink/pkg/core/certlink"
	"github.com/wadjakorntonsri/certlink/pkg/core/services"
	"github.com/wadjakorntonsri/certlink/pkg/logging"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := logging.New(cfg)
	slog.SetDefault(logger)

	// Note: On Vercel, a local sqlite file is ephemeral; use a Turso or Postgres DATABASE_URL
	repo, err := sqlstore.NewSQLRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	mode, err := certlink.ParseMode(cfg.LinkSigning)
	if err != nil {
		panic(err)
	}
	codec, err := certlink.NewCodec(mode, []byte(cfg.LinkSecret))
	if err != nil {
		panic(err)
	}

	service := services.NewCertificateService(repo, certlink.NewBuilder(cfg.BaseURL, codec), services.Options{
		DefaultTTLDays: cfg.DefaultTTLDays,
		Events:         events.New(cfg.KafkaBrokers, cfg.KafkaTopic),
		Logger:         logger,
	})
	mux = handler.NewRouter(service, logger)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
