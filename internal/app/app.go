// Package app wires ORIGIN's composition root: configuration, logging,
// storage, the domain services, and the HTTP or worker runtime loop.
// Nothing outside this package constructs infrastructure clients —
// everything else receives what it needs as constructor arguments.
package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/originhq/origin/internal/admin"
	"github.com/originhq/origin/internal/audit"
	"github.com/originhq/origin/internal/auth"
	"github.com/originhq/origin/internal/blobstore"
	"github.com/originhq/origin/internal/config"
	"github.com/originhq/origin/internal/cryptoprovider"
	"github.com/originhq/origin/internal/httpserver"
	"github.com/originhq/origin/internal/platform"
	"github.com/originhq/origin/internal/readiness"
	"github.com/originhq/origin/internal/signer"
	"github.com/originhq/origin/internal/telemetry"
	"github.com/originhq/origin/pkg/apikey"
	"github.com/originhq/origin/pkg/certificate"
	"github.com/originhq/origin/pkg/evidence"
	"github.com/originhq/origin/pkg/idempotency"
	"github.com/originhq/origin/pkg/inference"
	"github.com/originhq/origin/pkg/ingest"
	"github.com/originhq/origin/pkg/policy"
	"github.com/originhq/origin/pkg/tenant"
	"github.com/originhq/origin/pkg/upload"
	"github.com/originhq/origin/pkg/webhook"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the appropriate mode (api or worker).
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting origin", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	sgn, err := buildSigner(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building signer: %w", err)
	}

	crypto, err := buildCryptoProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building encryption provider: %w", err)
	}

	blobs, err := buildBlobStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building blob store: %w", err)
	}

	metricsReg := telemetry.NewMetricsRegistry()

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg, sgn, crypto, blobs)
	case "worker":
		return runWorker(ctx, cfg, logger, db, rdb, crypto, blobs)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// buildSigner selects the certificate signer named by SIGNING_KEY_PROVIDER.
// Outside development, a misconfigured signer fails the process at boot
// rather than on the first certificate issuance (spec.md §4.1).
func buildSigner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (signer.Signer, error) {
	switch cfg.SigningKeyProvider {
	case "kms":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		return signer.NewKMS(ctx, kms.NewFromConfig(awsCfg), cfg.SigningKeyID)
	case "local":
		if !cfg.IsDevelopment() {
			return nil, errors.New("the local signing key provider is not permitted outside development")
		}
		if cfg.LocalSigningKeyPEM == "" {
			logger.Warn("signer: no LOCAL_SIGNING_KEY_PEM configured, generating an ephemeral dev key")
			pemBytes, keyID, err := ephemeralSigningKey()
			if err != nil {
				return nil, err
			}
			return signer.NewLocal(pemBytes, keyID)
		}
		return signer.NewLocal([]byte(cfg.LocalSigningKeyPEM), cfg.SigningKeyID)
	default:
		return nil, fmt.Errorf("unknown signing key provider %q", cfg.SigningKeyProvider)
	}
}

// ephemeralSigningKey generates a throwaway RSA key for development boots
// that haven't configured LOCAL_SIGNING_KEY_PEM. Certificates it signs
// are worthless across restarts since the key never persists, but that's
// acceptable only because IsDevelopment() gates every call site.
func ephemeralSigningKey() ([]byte, string, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, "", fmt.Errorf("generating ephemeral signing key: %w", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
	return pemBytes, "dev-ephemeral", nil
}

func buildCryptoProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cryptoprovider.Provider, error) {
	switch cfg.EncryptionProvider {
	case "kms":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		return cryptoprovider.NewKMS(kms.NewFromConfig(awsCfg), cfg.EncryptionKeyID), nil
	case "local":
		if !cfg.IsDevelopment() && !cfg.IsTest() {
			return nil, errors.New("the local encryption provider is not permitted outside development/test")
		}
		if cfg.InstallationSalt == "" {
			return nil, errors.New("LOCAL_ENCRYPTION_SALT is required for the local encryption provider")
		}
		return cryptoprovider.NewLocal(cfg.ServerSecret, cfg.InstallationSalt)
	default:
		return nil, fmt.Errorf("unknown encryption provider %q", cfg.EncryptionProvider)
	}
}

func buildBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobstore.Store, error) {
	switch cfg.BlobProvider {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.BlobRegion))
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.BlobEndpoint != "" {
				o.BaseEndpoint = &cfg.BlobEndpoint
			}
		})
		return blobstore.NewS3(client, s3.NewPresignClient(client), cfg.BlobBucket), nil
	case "fs":
		if !cfg.IsDevelopment() {
			logger.Warn("blobstore: filesystem provider in use outside development")
		}
		return blobstore.NewFS(cfg.BlobFSRoot), nil
	default:
		return nil, fmt.Errorf("unknown blob provider %q", cfg.BlobProvider)
	}
}

// buildDomain wires every store, service, and registry shared by both the
// API and worker runtime modes.
type domain struct {
	tenants      *tenant.Store
	apikeys      *apikey.Store
	apikeySvc    *apikey.Service
	policies     *policy.Registry
	certStore    *certificate.Store
	certService  *certificate.Service
	uploads      *upload.Store
	idempotency  *idempotency.Store
	scorer       inference.Scorer
	packs        *evidence.Store
	broker       evidence.Broker
	evidenceSvc  *evidence.Service
	webhookStore *webhook.Store
	enqueuer     *webhook.Enqueuer
	dispatcher   *webhook.Dispatcher
	auditWriter  *audit.Writer
}

func buildDomain(cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, sgn signer.Signer, crypto cryptoprovider.Provider, blobs blobstore.Store) *domain {
	policies := policy.NewRegistry()
	policies.Register(policy.DefaultProfile())

	certStore := certificate.NewStore(db)
	certService := certificate.NewService(sgn)

	packs := evidence.NewStore(db)
	broker := evidence.NewRedisBroker(rdb, cfg.EvidenceBrokerQueue)
	uploads := upload.NewStore(db)
	evidenceSvc := evidence.NewService(packs, broker, blobs, certStore, uploads, time.Duration(cfg.EvidenceSignedURLTTL)*time.Second, logger)

	webhookStore := webhook.NewStore(db)

	apikeys := apikey.NewStore(db)

	return &domain{
		tenants:      tenant.NewStore(db),
		apikeys:      apikeys,
		apikeySvc:    apikey.NewService(apikeys, cfg.ServerSecret, cfg.LegacyAPIKeyFallback, logger),
		policies:     policies,
		certStore:    certStore,
		certService:  certService,
		uploads:      uploads,
		idempotency:  idempotency.NewStore(db),
		scorer:       inference.NewLocal("risk-v1", "anomaly-v1"),
		packs:        packs,
		broker:       broker,
		evidenceSvc:  evidenceSvc,
		webhookStore: webhookStore,
		enqueuer:     webhook.NewEnqueuer(webhookStore),
		dispatcher:   webhook.NewDispatcher(webhookStore, crypto, cfg.WebhookHTTPTimeout, cfg.WebhookOutboundRatePerSecond, logger),
		auditWriter:  audit.NewWriter(db, logger),
	}
}

// jwksRouter wraps the signer's JWKS handler in a chi.Router so it mounts
// alongside the other domain handlers the same way.
func jwksRouter(sgn signer.Signer, logger *slog.Logger) chi.Router {
	h := signer.NewHandler(sgn, logger)
	r := chi.NewRouter()
	r.Get("/jwks.json", h.HandleJWKS)
	return r
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, sgn signer.Signer, crypto cryptoprovider.Provider, blobs blobstore.Store) error {
	d := buildDomain(cfg, logger, db, rdb, sgn, crypto, blobs)

	d.auditWriter.Start(ctx)
	defer d.auditWriter.Close()

	ingestService := ingest.NewService(db, d.certService, d.certStore, d.uploads, d.idempotency, d.scorer, d.policies, d.enqueuer, logger)

	readinessChecker := readiness.New(db, rdb, blobs, sgn, cfg.DatabaseURL, cfg.MigrationsDir, !cfg.IsDevelopment(), logger)
	rateLimiter := auth.NewRateLimiter(rdb)

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg, readinessChecker, d.apikeySvc, d.tenants, rateLimiter)

	srv.Mount("/ingest", apikey.ScopeIngestWrite, ingest.NewHandler(ingestService, logger).Routes())
	srv.MountMethodScoped("/evidence-packs", apikey.ScopeEvidenceRead, apikey.ScopeEvidenceWrite, evidence.NewHandler(d.evidenceSvc, logger).Routes())
	srv.Mount("/certificates", apikey.ScopeCertificatesRead, certificate.NewHandler(d.certStore, logger).Routes())
	srv.Mount("/keys", apikey.ScopeCertificatesRead, jwksRouter(sgn, logger))
	srv.MountMethodScoped("/webhooks", apikey.ScopeWebhooksRead, apikey.ScopeWebhooksWrite, webhook.NewHandler(d.webhookStore, crypto, d.dispatcher, logger).Routes())
	srv.Mount("/models", apikey.ScopeEvidenceRead, inference.NewHandler(d.scorer).Routes())

	adminHandler := admin.NewHandler(d.tenants, d.apikeySvc, d.apikeys, d.auditWriter, logger)
	srv.Router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate(d.apikeySvc, d.tenants, logger))
		r.Use(auth.RequireAuth)
		r.Use(auth.RequireScope(apikey.ScopeAdmin))
		r.Mount("/", adminHandler.Routes())
	})

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, crypto cryptoprovider.Provider, blobs blobstore.Store) error {
	logger.Info("worker started")

	// The worker process never signs or authenticates; it only renders
	// evidence packs and dispatches webhooks, so it has no use for a
	// signer and is built without one.
	d := buildDomain(cfg, logger, db, rdb, nil, crypto, blobs)

	sweeper := evidence.NewSweeper(d.packs, d.broker, cfg.EvidenceStuckAfter, cfg.EvidenceSweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	worker := evidence.NewWorker(d.broker, d.evidenceSvc, logger)
	go worker.Run(ctx)

	go d.dispatcher.Run(ctx, cfg.WebhookDispatchInterval)

	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}
