package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkosenkov/fieldvault/internal/adapter"
	"github.com/pkosenkov/fieldvault/internal/codec"
	"github.com/pkosenkov/fieldvault/internal/config"
	"github.com/pkosenkov/fieldvault/internal/crypto"
	"github.com/pkosenkov/fieldvault/internal/diag"
	"github.com/pkosenkov/fieldvault/internal/identity"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/internal/policy"
	"github.com/pkosenkov/fieldvault/internal/session"
	"github.com/pkosenkov/fieldvault/internal/store"
	"github.com/pkosenkov/fieldvault/migrations"
	"github.com/pkosenkov/fieldvault/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("fieldvault")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("fieldvault run error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := connectStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer db.Close()

	if err = migrations.Migrate(db.DB, cfg.Storage.Driver); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	policies, err := loadPolicies(cfg.Crypto)
	if err != nil {
		return fmt.Errorf("load policies: %w", err)
	}

	cipher := crypto.NewFieldCipher()
	keys := session.NewCoordinator(crypto.NewKeyDeriver(), cipher, log)
	defer keys.OnSignOut()

	stats := diag.NewStats()
	recordCodec := codec.NewDocumentCodec(keys, cipher, policies, codec.Config{
		Enabled:    !cfg.Crypto.Disabled,
		EncodeWait: cfg.Crypto.EncodeWait,
		DecodeWait: cfg.Crypto.DecodeWait,
	}, stats, log)
	batchCodec := codec.NewBatchCodec(recordCodec, log)

	repo := store.NewDocumentRepository(db, log)
	vault := store.NewEncryptedStore(repo, recordCodec, batchCodec, log)

	if cfg.Diag.Address != "" {
		startDiagServer(ctx, cfg.Diag.Address, stats, log)
	}

	// The auth flow normally hands the session token over after sign-in;
	// standalone runs take it from the environment.
	if token := os.Getenv("FIELDVAULT_TOKEN"); token != "" {
		accountID, idErr := identity.TokenAccountID(token)
		if idErr != nil {
			return fmt.Errorf("resolve account from token: %w", idErr)
		}
		if err = keys.OnSignIn(ctx, accountID); err != nil {
			return fmt.Errorf("initialize encryption: %w", err)
		}

		if cfg.Remote.BaseURL != "" {
			if err = syncFromRemote(ctx, cfg.Remote, token, repo, policies, log); err != nil {
				// Sync failures are not fatal: the local cache keeps working.
				log.Warn().Err(err).Msg("remote sync failed, continuing with local data")
			}
		}
	}

	warmUp(ctx, vault, policies, log)

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}

func connectStorage(ctx context.Context, cfg config.Storage, log *logger.Logger) (*store.DB, error) {
	switch cfg.Driver {
	case "pgx":
		return store.NewConnectPostgres(ctx, cfg, log)
	default:
		return store.NewConnectSQLite(ctx, cfg, log)
	}
}

func loadPolicies(cfg config.Crypto) (*policy.Table, error) {
	if cfg.PolicyPath != "" {
		return policy.LoadFile(cfg.PolicyPath)
	}
	return policy.Default()
}

func startDiagServer(ctx context.Context, address string, stats *diag.Stats, log *logger.Logger) {
	srv := &http.Server{Addr: address, Handler: diag.Handler(stats)}

	go func() {
		log.Info().Str("address", address).Msg("diag endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("diag server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// syncFromRemote pulls every covered collection from the sync backend and
// mirrors the documents into the local cache. Bodies stay encoded end to
// end; the backend and the repository never see plaintext fields.
func syncFromRemote(ctx context.Context, cfg config.Remote, token string, repo store.DocumentRepository, policies *policy.Table, log *logger.Logger) error {
	remote, err := adapter.NewHTTPSyncAdapter(cfg, log)
	if err != nil {
		return err
	}
	remote.SetToken(token)

	for _, collection := range policies.Collections() {
		docs, err := remote.Pull(ctx, collection)
		if err != nil {
			return fmt.Errorf("pull %s: %w", collection, err)
		}

		for _, doc := range docs {
			if err = repo.Save(ctx, doc); err != nil {
				return fmt.Errorf("cache %s/%s: %w", doc.Collection, doc.DocumentID, err)
			}
		}

		log.Info().Str("collection", collection).Int("documents", len(docs)).Msg("collection synced")
	}

	return nil
}

// warmUp decodes every covered collection once so degradations surface in
// the logs and counters right at startup instead of on the first user read.
func warmUp(ctx context.Context, vault *store.EncryptedStore, policies *policy.Table, log *logger.Logger) {
	for _, collection := range policies.Collections() {
		results, err := vault.List(ctx, collection)
		if err != nil {
			log.Warn().Err(err).Str("collection", collection).Msg("warm-up list failed")
			continue
		}

		partial := 0
		for _, r := range results {
			if r.Status == models.PartiallyDecoded {
				partial++
			}
		}
		log.Info().
			Str("collection", collection).
			Int("documents", len(results)).
			Int("partial", partial).
			Msg("collection ready")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
