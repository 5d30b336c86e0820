package schema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD support
	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/logging"
	"github.com/fabworks/semgen/pkg/retry"
)

// Connect opens and verifies a warehouse connection for the configured auth
// method. Transient connect and ping failures are retried with exponential
// backoff; permanent failures (bad credentials, unknown database) return
// immediately.
func Connect(ctx context.Context, cfg *Config, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var db *sql.DB
	var err error
	switch cfg.AuthMethod {
	case AuthSQL:
		db, err = openSQLAuth(cfg)
	case AuthServicePrincipal:
		db, err = openServicePrincipal(cfg)
	case AuthDefault:
		db, err = openDefaultCredential(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	logger.Debug("verifying warehouse connection",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("database", cfg.Database),
		zap.String("auth_method", cfg.AuthMethod))

	if err := retry.DoIfRetryable(ctx, nil, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping warehouse %s: %s", cfg.Endpoint, logging.SanitizeError(err))
	}

	logger.Info("connected to warehouse",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("database", cfg.Database))
	return db, nil
}

func baseQuery(cfg *Config) url.Values {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}
	return query
}

func openSQLAuth(cfg *Config) (*sql.DB, error) {
	query := baseQuery(cfg)

	connStr := fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Endpoint,
		cfg.Port,
		query.Encode(),
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}
	return db, nil
}

// openServicePrincipal connects with Azure AD client credentials.
// Uses the azuresql driver with the fedauth parameter.
func openServicePrincipal(cfg *Config) (*sql.DB, error) {
	query := baseQuery(cfg)
	query.Add("fedauth", "ActiveDirectoryServicePrincipal")
	query.Add("user id", cfg.ClientID)
	query.Add("password", cfg.ClientSecret)
	query.Add("tenant id", cfg.TenantID)

	connStr := fmt.Sprintf("sqlserver://%s:%d?%s",
		cfg.Endpoint,
		cfg.Port,
		query.Encode(),
	)

	db, err := sql.Open("azuresql", connStr)
	if err != nil {
		return nil, fmt.Errorf("open service principal connection: %w", err)
	}
	return db, nil
}

// openDefaultCredential connects via the DefaultAzureCredential chain, which
// covers managed identity, Azure CLI, and environment variable credentials.
func openDefaultCredential(cfg *Config) (*sql.DB, error) {
	query := baseQuery(cfg)
	query.Add("fedauth", "ActiveDirectoryDefault")

	connStr := fmt.Sprintf("sqlserver://%s:%d?%s",
		cfg.Endpoint,
		cfg.Port,
		query.Encode(),
	)

	db, err := sql.Open("azuresql", connStr)
	if err != nil {
		return nil, fmt.Errorf("open default credential connection: %w", err)
	}
	return db, nil
}
