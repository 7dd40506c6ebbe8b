package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bidmarket/db"
	"bidmarket/db/migrations"
	"bidmarket/internal/apperr"
	"bidmarket/internal/engine"
	"bidmarket/internal/handlers"
	"bidmarket/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file", slog.String("error", err.Error()))
	}

	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		log.Error("POSTGRES_CONN env variable is not set")
		os.Exit(1)
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		log.Error("cannot connect to DB", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB); err != nil {
		log.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := db.NewStorage(dbConn)
	if username := os.Getenv("BOOTSTRAP_ADMIN"); username != "" {
		if err := bootstrapAdmin(context.Background(), store, username); err != nil {
			log.Error("admin bootstrap failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	runTx := func(ctx context.Context, fn func(tx engine.Store) error) error {
		return store.InTx(ctx, func(tx *db.Storage) error {
			return fn(tx)
		})
	}
	eng := engine.New(store, runTx, log, engine.LogNotifier{Log: log})
	h := handlers.NewHandler(eng, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Route("/requirements", func(r chi.Router) {
			r.Post("/new", h.CreateRequirementHandler)
			r.Get("/{requirementId}", h.GetRequirementHandler)
			r.Post("/{requirementId}/approval/request", h.RequestApprovalHandler)
			r.Post("/{requirementId}/approval/resolve", h.ResolveApprovalHandler)
			r.Post("/{requirementId}/publish", h.PublishHandler)
			r.Post("/{requirementId}/evaluators", h.AssignRequirementHandler)
		})
		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", h.ListAnnouncementsHandler)
			r.Get("/{announcementId}/proposals", h.ListProposalsHandler)
			r.Post("/{announcementId}/evaluators", h.AssignAnnouncementHandler)
			r.Get("/{announcementId}/evaluators", h.ListAssignmentsHandler)
			r.Get("/{announcementId}/summary", h.EvaluationSummaryHandler)
		})
		r.Post("/projects/{projectId}/evaluators", h.AssignProjectHandler)
		r.Route("/proposals", func(r chi.Router) {
			r.Post("/new", h.SubmitProposalHandler)
			r.Get("/my", h.ListMyProposalsHandler)
			r.Post("/{proposalId}/score", h.SubmitScoreHandler)
			r.Post("/{proposalId}/award", h.AwardHandler)
			r.Post("/{proposalId}/reject", h.RejectHandler)
			r.Put("/{proposalId}/reserve", h.SetReserveRankHandler)
			r.Post("/{proposalId}/promote", h.PromoteHandler)
		})
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/{contractId}", h.GetContractHandler)
			r.Put("/{contractId}/payment", h.PaymentStatusHandler)
		})
	})

	serverAddr := os.Getenv("SERVER_ADDRESS")
	if serverAddr == "" {
		serverAddr = "0.0.0.0:8080"
	}

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()
	log.Info("starting server", slog.String("address", serverAddr))

	<-done
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// bootstrapAdmin creates the platform organization and an administrator
// account on first start. A no-op when the username already exists.
func bootstrapAdmin(ctx context.Context, store *db.Storage, username string) error {
	if _, err := store.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	org := &models.Organization{Name: "Platform Operations", Kind: models.OrgAgency}
	return store.InTx(ctx, func(tx *db.Storage) error {
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &models.User{
			Username:       username,
			Role:           models.RoleAdmin,
			OrganizationID: org.ID,
		})
	})
}
