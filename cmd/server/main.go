package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"aurum/internal/assetnft"
	"aurum/internal/compliance"
	compliancemetrics "aurum/internal/compliance/metrics"
	"aurum/internal/dividend"
	"aurum/internal/identity"
	identitystore "aurum/internal/identity/store"
	"aurum/internal/identityregistry"
	registrycache "aurum/internal/identityregistry/cache"
	registrymetrics "aurum/internal/identityregistry/metrics"
	registrystore "aurum/internal/identityregistry/store"
	"aurum/internal/instruments"
	"aurum/internal/operatorauth"
	"aurum/internal/platform/config"
	"aurum/internal/platform/httpserver"
	"aurum/internal/platform/logger"
	"aurum/internal/redemption"
	redemptionstore "aurum/internal/redemption/store"
	"aurum/internal/token"
	tokenmetrics "aurum/internal/token/metrics"
	tokenmodels "aurum/internal/token/models"
	tokenstore "aurum/internal/token/store"
	httptransport "aurum/internal/transport/http"
	"aurum/internal/trust"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditkafka "aurum/pkg/platform/audit/kafka"
	"aurum/pkg/platform/audit/outbox"
	auditmemory "aurum/pkg/platform/audit/store/memory"
	auditpostgres "aurum/pkg/platform/audit/store/postgres"
)

// outboxSource adapts the postgres audit store to the outbox worker.
type outboxSource struct {
	store *auditpostgres.Store
}

func (s outboxSource) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Row, error) {
	rows, err := s.store.FetchUnpublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]outbox.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, outbox.Row{ID: r.ID, Payload: r.Payload})
	}
	return out, nil
}

func (s outboxSource) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	return s.store.MarkPublished(ctx, ids, at)
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	operator, err := domain.ParseAddress(cfg.OperatorAddress)
	if err != nil {
		log.Error("invalid operator address", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	// Audit trail and wallet bindings: durable in Postgres when configured,
	// in-memory otherwise. The audit recorder is fail-closed either way.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	var pgAudit *auditpostgres.Store
	var walletStore identityregistry.Store = registrystore.NewInMemoryStore()
	var idStore identity.Store = identitystore.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgAudit = auditpostgres.New(db)
		auditStore = pgAudit
		walletStore = registrystore.NewPostgres(db)
		idStore = identitystore.NewPostgres(db)
	}
	recorder := audit.NewRecorder(auditStore, audit.WithLogger(log), audit.WithMetrics(audit.NewMetrics()))

	if pgAudit != nil && len(cfg.KafkaBrokers) > 0 {
		publisher, err := auditkafka.NewPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		worker := outbox.NewWorker(outboxSource{store: pgAudit}, publisher, log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	// Identity, trust, and the wallet registry.
	identities := identity.NewService(idStore, recorder, log)
	topics := trust.NewTopicsRegistry(operator, recorder)
	issuers := trust.NewIssuersRegistry(operator, recorder)

	regOpts := []identityregistry.Option{
		identityregistry.WithMetrics(registrymetrics.New()),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		regOpts = append(regOpts, identityregistry.WithCountryCache(
			registrycache.NewCountryCache(rdb, config.CountryCacheTTL),
		))
	}
	registry := identityregistry.NewService(
		operator,
		walletStore,
		identities,
		topics,
		issuers,
		recorder,
		log,
		regOpts...,
	)

	// Token instruments are created at runtime. The factory binds each new
	// ledger to a fresh compliance instance and enrolls the platform
	// operator as agent so redemption can orchestrate forced transfers.
	insts := instruments.NewRegistry()
	ledgerMetrics := tokenmetrics.New()
	complianceMetrics := compliancemetrics.New()
	newInstrument := func(name, symbol string, decimals uint8, owner domain.Address) (instruments.Instrument, error) {
		id := domain.NewTokenID()
		comp := compliance.New(owner, recorder, log, compliance.WithMetrics(complianceMetrics))
		if err := comp.BindToken(context.Background(), owner, id); err != nil {
			return instruments.Instrument{}, err
		}
		ledger := token.NewService(
			tokenmodels.Info{Token: id, Name: name, Symbol: symbol, Decimals: decimals},
			owner,
			tokenstore.NewInMemoryLedger(),
			registry,
			comp,
			recorder,
			log,
			token.WithMetrics(ledgerMetrics),
		)
		if owner != operator {
			if err := ledger.Access().AddAgent(owner, operator); err != nil {
				return instruments.Instrument{}, err
			}
		}
		inst := instruments.Instrument{Token: ledger, Compliance: comp}
		if err := insts.Add(inst); err != nil {
			return instruments.Instrument{}, err
		}
		return inst, nil
	}

	assets := assetnft.NewRegistry(recorder)
	redemptions := redemption.NewService(
		redemptionstore.NewInMemoryStore(),
		insts,
		registry,
		assets,
		operator,
		recorder,
		log,
	)
	dividends := dividend.NewService(insts, registry, recorder, log)

	jwtService := operatorauth.NewJWTService(cfg.JWTSigningKey, "aurum", "aurum-api")
	handler := httptransport.NewHandler(
		identities,
		topics,
		issuers,
		registry,
		insts,
		newInstrument,
		assets,
		redemptions,
		dividends,
		log,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.NewRouter(handler, jwtService))

	srv := httpserver.New(cfg.Addr, mux)

	group.Go(func() error {
		log.Info("starting aurum server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
