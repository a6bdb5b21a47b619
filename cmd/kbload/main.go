// Command kbload embeds FAQ and article exports and loads them into the knowledge index.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/config"
	dbValkey "github.com/kailas-cloud/supportdesk/internal/db/valkey"
	"github.com/kailas-cloud/supportdesk/internal/domain"
	dombatch "github.com/kailas-cloud/supportdesk/internal/domain/batch"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	logpkg "github.com/kailas-cloud/supportdesk/internal/logger"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
	"github.com/kailas-cloud/supportdesk/internal/repository/embcache"
	knowledgerepo "github.com/kailas-cloud/supportdesk/internal/repository/knowledge"
	openaiTransport "github.com/kailas-cloud/supportdesk/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/supportdesk/internal/usecase/embedding"
	"github.com/kailas-cloud/supportdesk/internal/usecase/ingest"
	"github.com/kailas-cloud/supportdesk/internal/version"
)

func main() {
	var (
		faqPath      = flag.String("faq", "", "FAQ export JSON: [{\"fields\": {\"question\", \"answer\"}}]")
		articlesPath = flag.String("articles", "", "articles JSON: [{\"id\", \"title\", \"text\", \"priority\"}]")
		workers      = flag.Int("workers", ingest.DefaultWorkers, "concurrent embed+upsert workers")
		force        = flag.Bool("force", false, "re-embed records whose stored copy is unchanged")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *faqPath == "" && *articlesPath == "" {
		fmt.Fprintln(os.Stderr, "kbload: at least one of -faq or -articles is required")
		flag.Usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, logger, *faqPath, *articlesPath, *workers, *force); err != nil {
		logger.Error("Load failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(
	ctx context.Context, cfg *config.Config, logger *zap.Logger,
	faqPath, articlesPath string, workers int, force bool,
) error {
	var records []knowledge.Record
	if faqPath != "" {
		recs, err := readSource(faqPath, ingest.ParseFAQs, logger)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}
	if articlesPath != "" {
		recs, err := readSource(articlesPath, ingest.ParseArticles, logger)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}

	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()
	if err := store.WaitForReady(ctx, config.Seconds(cfg.Database.ReadinessTimeout)); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if cfg.Embedding.CacheTTLSec > 0 {
		embedder = embcache.New(embedder, store, embcache.Config{
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        config.Seconds(cfg.Embedding.CacheTTLSec),
		}, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Model, logger)
	repo := knowledgerepo.New(store, knowledgerepo.Config{
		IndexName:  cfg.Database.IndexName,
		KeyPrefix:  cfg.Database.KeyPrefix,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		HNSWM:      cfg.Database.HNSWM,
		HNSWEF:     cfg.Database.HNSWEFConstruct,
	})

	logger.Info("Loading knowledge records",
		zap.Int("records", len(records)),
		zap.Int("workers", workers),
		zap.String("index", repo.IndexName()),
	)
	results, err := ingest.New(embedder, repo, logger).WithWorkers(workers).WithForce(force).Load(ctx, records)
	sum := dombatch.Summarize(results)
	logger.Info("Load finished",
		zap.Int("uploaded", sum.OK),
		zap.Int("unchanged", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", sum.Failed, len(results))
	}
	return nil
}

func readSource(
	path string,
	parse func(io.Reader) ([]knowledge.Record, []ingest.Rejected, error),
	logger *zap.Logger,
) ([]knowledge.Record, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, rejected, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range rejected {
		logger.Warn("Skipping entry", zap.String("file", path), zap.Int("index", r.Index), zap.Error(r.Err))
	}
	return records, nil
}
