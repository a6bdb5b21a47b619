package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/config"
	"github.com/kailas-cloud/supportdesk/internal/db"
	dbValkey "github.com/kailas-cloud/supportdesk/internal/db/valkey"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/supportdesk/internal/repository/auditlog"
	knowledgerepo "github.com/kailas-cloud/supportdesk/internal/repository/knowledge"
	chiTransport "github.com/kailas-cloud/supportdesk/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/supportdesk/internal/transport/openai"
	"github.com/kailas-cloud/supportdesk/internal/transport/sendgrid"
	"github.com/kailas-cloud/supportdesk/internal/transport/sheets"
	answeruc "github.com/kailas-cloud/supportdesk/internal/usecase/answer"
	"github.com/kailas-cloud/supportdesk/internal/usecase/assemble"
	audituc "github.com/kailas-cloud/supportdesk/internal/usecase/audit"
	"github.com/kailas-cloud/supportdesk/internal/usecase/conversation"
	embeddinguc "github.com/kailas-cloud/supportdesk/internal/usecase/embedding"
	"github.com/kailas-cloud/supportdesk/internal/usecase/escalation"
	healthuc "github.com/kailas-cloud/supportdesk/internal/usecase/health"
	"github.com/kailas-cloud/supportdesk/internal/usecase/retrieval"
)

// app is the composition root output.
type app struct {
	server *chiTransport.Server
	store  db.Store
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

// build wires every dependency. Clients are created once and shared across requests.
func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to database")

	kb := knowledgerepo.New(store, knowledgerepo.Config{
		IndexName:  cfg.Database.IndexName,
		KeyPrefix:  cfg.Database.KeyPrefix,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		HNSWM:      cfg.Database.HNSWM,
		HNSWEF:     cfg.Database.HNSWEFConstruct,
	})
	created, err := kb.EnsureIndex(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure knowledge index: %w", err)
	}
	logger.Info("Knowledge index ready", zap.String("index", kb.IndexName()), zap.Bool("created", created))

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Logger:      logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("completion_model", cfg.Completion.Model),
	)

	auditor, err := buildAuditor(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	fallback := knowledge.Type(cfg.Retrieval.FallbackPartition)
	if cfg.Retrieval.FallbackPartition == "none" {
		fallback = ""
	}

	answers := answeruc.New(answeruc.Deps{
		Embedder: embeddinguc.NewInstrumentedEmbedder(baseEmbedder, cfg.Embedding.Model, logger),
		Retriever: retrieval.New(kb, retrieval.Policy{
			TopK:     cfg.Retrieval.TopK,
			MinScore: cfg.Retrieval.Threshold(),
			Primary:  knowledge.Type(cfg.Retrieval.PrimaryPartition),
			Fallback: fallback,
		}),
		Assembler: assemble.New(nil),
		Conversation: conversation.New(conversation.Config{
			HistoryWindow: cfg.Retrieval.HistoryWindow,
			CompanyName:   cfg.Assistant.CompanyName,
			SupportEmail:  cfg.Assistant.SupportEmail,
			SystemPrompt:  cfg.Assistant.SystemPrompt,
		}),
		Completer: completer,
		Detector:  escalation.NewContactAddressDetector(cfg.Assistant.SupportEmail),
		Auditor:   auditor,
		Notifier:  notifier,
	}, answeruc.Config{
		MaxContextTokens: cfg.Retrieval.MaxContextTokens,
		Timeouts: answeruc.Timeouts{
			Embedding:  config.Seconds(cfg.Timeouts.EmbeddingSec),
			Retrieval:  config.Seconds(cfg.Timeouts.RetrievalSec),
			Completion: config.Seconds(cfg.Timeouts.CompletionSec),
			Audit:      config.Seconds(cfg.Timeouts.AuditSec),
			Notify:     config.Seconds(cfg.Timeouts.NotifySec),
		},
	})

	health := healthuc.New(map[string]healthuc.Checker{
		"database":   healthuc.PingChecker{DB: store},
		"embedding":  baseEmbedder,
		"completion": completer,
	})

	return &app{
		server: chiTransport.NewServer(answers, health, logger),
		store:  store,
	}, nil
}

// openStore connects to Valkey or Redis 8+. Both speak the same FT.* dialect through rueidis.
func openStore(ctx context.Context, dbc config.DatabaseConfig) (db.Store, error) {
	switch dbc.Driver {
	case "valkey", "redis":
	default:
		return nil, fmt.Errorf("unknown database driver %q", dbc.Driver)
	}

	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    dbc.Addrs,
		Username: dbc.Username,
		Password: dbc.Password,
		DB:       dbc.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", dbc.Driver, err)
	}
	if err := store.WaitForReady(ctx, config.Seconds(dbc.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// buildAuditor returns nil (not a typed nil pointer) when auditing is disabled.
func buildAuditor(
	ctx context.Context, cfg *config.Config, store db.Store, logger *zap.Logger,
) (answeruc.Auditor, error) {
	switch cfg.Audit.Driver {
	case config.AuditSheets:
		appender, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.Audit.SpreadsheetID,
			Range:           cfg.Audit.SheetRange,
			CredentialsFile: cfg.Audit.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("create sheets audit log: %w", err)
		}
		return audituc.NewRecorder(appender, logger), nil
	case config.AuditStream:
		return audituc.NewRecorder(auditlog.NewStream(store, cfg.Audit.StreamKey, cfg.Audit.StreamMaxLen), logger), nil
	default:
		logger.Warn("Audit log disabled")
		return nil, nil
	}
}

func buildNotifier(cfg *config.Config, logger *zap.Logger) (*escalation.Notifier, error) {
	if cfg.Notify.Driver != config.NotifySendGrid {
		logger.Info("Escalation notifications disabled")
		return escalation.NewNotifier(nil, "", logger), nil
	}

	client, err := sendgrid.New(sendgrid.Config{
		APIKey:     cfg.Notify.APIKey,
		BaseURL:    cfg.Notify.BaseURL,
		FromEmail:  cfg.Notify.FromEmail,
		FromName:   cfg.Notify.FromName,
		Timeout:    config.Seconds(cfg.Timeouts.NotifySec),
		MaxRetries: cfg.Notify.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create sendgrid client: %w", err)
	}
	return escalation.NewNotifier(client, cfg.Notify.To, logger), nil
}
