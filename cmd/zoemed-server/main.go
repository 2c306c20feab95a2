package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/config"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/extraction"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/measurement"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/patient"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/protocol"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/providerconfig"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/refrange"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/domain/score"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/auth"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/blobstore"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/db"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/llm"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/metrics"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/middleware"
	"github.com/reneerti/zoemed-bio-bd-externo-sub000/internal/platform/reporting"
)

// measurementSinkAdapter bridges the extraction pipeline to the measurement
// store without coupling the two packages.
type measurementSinkAdapter struct {
	svc *measurement.Service
}

func (a *measurementSinkAdapter) CreateFromExtraction(ctx context.Context, patientID, extractionID uuid.UUID, data *extraction.Extracted) error {
	rec := &measurement.Record{
		PatientID:    patientID,
		MeasuredAt:   time.Now().UTC(),
		Source:       "extraction",
		ExtractionID: &extractionID,

		Weight:                data.Weight,
		BMI:                   data.BMI,
		BodyFatPercent:        data.BodyFatPercent,
		FatMass:               data.FatMass,
		LeanMass:              data.LeanMass,
		MuscleMass:            data.MuscleMass,
		MuscleRatePercent:     data.MuscleRatePercent,
		SkeletalMusclePercent: data.SkeletalMusclePercent,
		VisceralFat:           data.VisceralFat,
		SubcutaneousFat:       data.SubcutaneousFat,
		BodyWaterPercent:      data.BodyWaterPercent,
		ProteinPercent:        data.ProteinPercent,
		BoneMass:              data.BoneMass,
		BMR:                   data.BMR,
		MetabolicAge:          data.MetabolicAge,
		WaistHipRatio:         data.WaistHipRatio,
	}
	return a.svc.CreateRecord(ctx, rec)
}

func main() {
	root := &cobra.Command{
		Use:   "zoemed-server",
		Short: "ZoeMed bioimpedance tracking server",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
	}))

	// Health and metrics sit outside auth.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	// API key manager. Keys are minted by masters and checked before JWT so
	// machine clients can skip the token flow.
	keyStore := auth.NewInMemoryAPIKeyStore()
	keyManager := auth.NewAPIKeyManager(keyStore)

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	apiV1.Use(auth.APIKeyMiddleware(keyManager))
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Patient domain
	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc)
	patientHandler.RegisterRoutes(apiV1)

	// Measurement domain
	measurementRepo := measurement.NewRepo(pool)
	measurementSvc := measurement.NewService(measurementRepo)
	measurementHandler := measurement.NewHandler(measurementSvc)
	measurementHandler.RegisterRoutes(apiV1)
	patientSvc.SetMeasurementSource(measurementSvc)

	// Protocol domain
	protocolRepo := protocol.NewRepo(pool)
	protocolSvc := protocol.NewService(protocolRepo)
	protocolHandler := protocol.NewHandler(protocolSvc)
	protocolHandler.RegisterRoutes(apiV1)

	// Reference ranges
	refrangeHandler := refrange.NewHandler()
	refrangeHandler.RegisterRoutes(apiV1)

	// Provider configuration
	configRepo := providerconfig.NewRepo(pool)
	resolver := providerconfig.NewResolver(configRepo)
	configHandler := providerconfig.NewHandler(configRepo, resolver)
	configHandler.RegisterRoutes(apiV1)

	// Extraction pipeline
	gateway := llm.NewClient(cfg.LLMGatewayURL, cfg.LLMGatewayKey)
	extractionRepo := extraction.NewRepo(pool)
	usageRepo := extraction.NewUsageRepo(pool)
	pipeline := extraction.NewPipeline(resolver, gateway, extractionRepo, usageRepo, logger)
	extractionHandler := extraction.NewHandler(pipeline, extractionRepo, usageRepo, logger)
	extractionHandler.SetMeasurementSink(&measurementSinkAdapter{svc: measurementSvc})
	extractionHandler.RegisterRoutes(apiV1)

	// Scores and leaderboard
	scoreRepo := score.NewRepo(pool)
	scoreSvc := score.NewService(scoreRepo, measurementSvc, logger)
	scoreHandler := score.NewHandler(scoreSvc)
	scoreHandler.RegisterRoutes(apiV1)

	scheduler, err := scoreSvc.StartScheduler(cfg.ScoreCron)
	if err != nil {
		logger.Fatal().Err(err).Str("at", cfg.ScoreCron).Msg("failed to start score scheduler")
	}
	defer scheduler.Stop()
	logger.Info().Str("at", cfg.ScoreCron).Msg("score scheduler started")

	// Report photos
	photoStore := blobstore.NewInMemoryPhotoStore()
	photoHandler := blobstore.NewPhotoHandler(photoStore)
	photoHandler.RegisterRoutes(apiV1)

	// Aggregate reports
	reportHandler := reporting.NewHandler(pool)
	reportHandler.RegisterRoutes(apiV1)

	// API key management
	keyHandler := auth.NewAPIKeyHandler(keyManager)
	keyHandler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var startErr error
		if cfg.TLSEnabled {
			startErr = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			startErr = e.Start(addr)
		}
		if startErr != nil && startErr != http.ErrServerClosed {
			logger.Fatal().Err(startErr).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
