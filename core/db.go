package core

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool is the subset of *pgxpool.Pool the service relies on.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Dialer opens a pool for the given connection settings.
type Dialer func(ctx context.Context, cfg ConnectionConfig) (DBPool, error)

// ConnectionProvider owns the one shared connection pool of the process.
// The pool is dialed at most once, on Open or on the first Conn call, and is
// closed by Shutdown. After Shutdown every Conn call fails with ErrConnectionUnavailable.
type ConnectionProvider struct {
	cfg  ConnectionConfig
	dial Dialer

	mu     sync.RWMutex
	pool   DBPool
	closed bool
}

// NewConnectionProvider returns a provider that has not dialed yet. A nil dial uses DialPostgres.
func NewConnectionProvider(cfg ConnectionConfig, dial Dialer) *ConnectionProvider {
	if dial == nil {
		dial = DialPostgres
	}
	return &ConnectionProvider{cfg: cfg, dial: dial}
}

// Open dials eagerly so that configuration or network problems surface at startup.
func (p *ConnectionProvider) Open(ctx context.Context) error {
	_, err := p.Conn(ctx)
	return err
}

// Conn returns the shared pool, dialing it on first use. Concurrent first callers
// wait for a single dial. A failed dial is not cached, so a later call retries.
func (p *ConnectionProvider) Conn(ctx context.Context) (DBPool, error) {
	p.mu.RLock()
	pool, closed := p.pool, p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrConnectionUnavailable
	}
	if pool != nil {
		return pool, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrConnectionUnavailable
	}
	if p.pool != nil {
		return p.pool, nil
	}
	pool, err := p.dial(ctx, p.cfg)
	if err != nil {
		log.Printf("database connect failed host=%s port=%s db=%s: %v", p.cfg.Host, p.cfg.Port, p.cfg.Name, err)
		return nil, fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}
	p.pool = pool
	return pool, nil
}

// Ping checks that the shared pool can reach the database.
func (p *ConnectionProvider) Ping(ctx context.Context) error {
	pool, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}
	return nil
}

// Shutdown closes the pool. It must only be called once request handling has stopped.
// Calling it again is a no-op.
func (p *ConnectionProvider) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
}

// ConnString renders cfg as a postgres URL.
func ConnString(cfg ConnectionConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	return u.String()
}

// DialPostgres opens a pgx connection pool with conservative defaults.
func DialPostgres(ctx context.Context, cfg ConnectionConfig) (DBPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override if needed.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validate connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
