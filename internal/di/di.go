package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	line_domain "github.com/fxgdesigns1/cohost/internal/domain/line"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	message_domain "github.com/fxgdesigns1/cohost/internal/domain/message"
	reply_domain "github.com/fxgdesigns1/cohost/internal/domain/reply"
	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
	credentialrepo "github.com/fxgdesigns1/cohost/internal/infrastructure/repository/credential"
	draftrepo "github.com/fxgdesigns1/cohost/internal/infrastructure/repository/draft"
	"github.com/fxgdesigns1/cohost/internal/infrastructure/repository/gemini"
	"github.com/fxgdesigns1/cohost/internal/infrastructure/repository/gmail"
	linerepo "github.com/fxgdesigns1/cohost/internal/infrastructure/repository/line"
	"github.com/fxgdesigns1/cohost/internal/infrastructure/repository/memory"
	messagerepo "github.com/fxgdesigns1/cohost/internal/infrastructure/repository/message"
	tenantrepo "github.com/fxgdesigns1/cohost/internal/infrastructure/repository/tenant"
	"github.com/fxgdesigns1/cohost/internal/policy"
	"github.com/fxgdesigns1/cohost/internal/service/approval"
	"github.com/fxgdesigns1/cohost/internal/service/poller"
	"github.com/fxgdesigns1/cohost/internal/token"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Storage string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	GmailCredentialsPath string
	OAuthRedirectURL     string

	BaseURL   string
	SecretKey string
	TokenTTL  time.Duration

	AutoMode       bool
	PollQuery      string
	PollMaxResults int64

	GeminiAPIKey string
	GeminiModel  string

	LineChannelToken string
}

type Container struct {
	DB *sql.DB

	TenantRepo     tenant_domain.TenantRepo
	CredentialRepo credential_domain.CredentialRepo
	DraftRepo      draft_domain.DraftRepo
	ThreadRepo     message_domain.ThreadRepo
	LogRepo        message_domain.LogRepo
	MailboxRepo    mailbox_domain.MailboxRepo
	LineRepo       line_domain.LineRepo
	Generator      reply_domain.Generator

	Codec           *token.Codec
	PollerService   *poller.Service
	ApprovalService *approval.Service
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	c := &Container{}

	switch cfg.Storage {
	case StorageMemory:
		// Explicitly selected in-memory storage for development; never a
		// fallback on connection failure.
		store := memory.NewStore()
		c.TenantRepo = store
		c.CredentialRepo = store
		c.DraftRepo = store
		c.ThreadRepo = store
		c.LogRepo = store
		slog.Info("using in-memory storage")
	case StorageMySQL, "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connected")

		c.DB = db
		c.TenantRepo = tenantrepo.NewTenantRepo(db)
		c.CredentialRepo = credentialrepo.NewCredentialRepo(db)
		c.DraftRepo = draftrepo.NewDraftRepo(db)
		c.ThreadRepo = messagerepo.NewThreadRepo(db)
		c.LogRepo = messagerepo.NewLogRepo(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	mailboxRepo, err := gmail.NewGmailRepo(ctx, cfg.GmailCredentialsPath, cfg.OAuthRedirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gmail repository: %w", err)
	}
	c.MailboxRepo = mailboxRepo

	if cfg.GeminiAPIKey != "" {
		generator, err := gemini.NewGeminiRepo(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini repository: %w", err)
		}
		c.Generator = generator
	} else {
		slog.Warn("no Gemini API key configured, generative fallback disabled")
	}

	if cfg.LineChannelToken != "" {
		lineRepo, err := linerepo.NewLineRepo(cfg.LineChannelToken)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LINE repository: %w", err)
		}
		c.LineRepo = lineRepo
	}

	c.Codec = token.NewCodec(cfg.SecretKey, cfg.BaseURL, cfg.TokenTTL)

	c.PollerService = poller.NewService(
		c.TenantRepo,
		c.CredentialRepo,
		c.MailboxRepo,
		c.DraftRepo,
		c.ThreadRepo,
		c.LogRepo,
		policy.NewEngine(nil),
		c.Generator,
		c.LineRepo,
		c.Codec,
		poller.Config{
			Query:      cfg.PollQuery,
			MaxResults: cfg.PollMaxResults,
			AutoMode:   cfg.AutoMode,
		},
	)

	c.ApprovalService = approval.NewService(
		c.Codec,
		c.DraftRepo,
		c.ThreadRepo,
		c.LogRepo,
		c.CredentialRepo,
		c.MailboxRepo,
	)

	return c, nil
}

func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
