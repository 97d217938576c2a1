package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rwaynewhite15/logtivity/internal/api"
	"github.com/rwaynewhite15/logtivity/internal/config"
	"github.com/rwaynewhite15/logtivity/internal/domain"
	"github.com/rwaynewhite15/logtivity/internal/outbox"
	"github.com/rwaynewhite15/logtivity/internal/store/memory"
	mongostore "github.com/rwaynewhite15/logtivity/internal/store/mongo"
	pgstore "github.com/rwaynewhite15/logtivity/internal/store/postgres"
	httptransport "github.com/rwaynewhite15/logtivity/internal/transport/http"
)

// store bundles the selected repository with its lifecycle hooks.
type store struct {
	repo  domain.Repository
	pool  *pgxpool.Pool
	close func()
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := mongostore.Connect(ctx, mongostore.ConnectOptions{URI: cfg.MongoURI, Timeout: cfg.MongoTimeout})
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return &store{
			repo: mongostore.NewRepository(client.Database(cfg.MongoDatabase)),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Printf("mongo disconnect: %v", err)
				}
			},
		}, nil
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return &store{repo: pgstore.NewRepository(pool), pool: pool, close: pool.Close}, nil
	case config.BackendMemory:
		return &store{repo: memory.NewRepository(), close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.close()
	log.Printf("using %s store", cfg.StoreBackend)

	var background sync.WaitGroup
	if st.pool != nil && cfg.OutboxEnabled {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher := outbox.NewDispatcher(st.pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			outbox.WithClaimLease(cfg.OutboxClaimLease))
		background.Add(1)
		go func() {
			defer background.Done()
			dispatcher.Run(ctx)
		}()
	}

	service := domain.NewService(st.repo)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
	}, httptransport.RequestLogger(nil)(httptransport.CORS(cfg.CORSAllowedOrigin)(mux)))

	if err := server.ListenAndServe(ctx); err != nil {
		log.Printf("server error: %v", err)
	}
	cancel()
	background.Wait()
}
