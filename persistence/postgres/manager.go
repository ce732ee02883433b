// Package postgres adapts a single PostgreSQL connection into a
// pool.Manager, so a pool.ObjectPool can lazily dial, validate, and
// close raw pgx connections the way the teacher's pgxpool already does
// internally for its own pool. This package exists to give that
// connection-management concern a home on top of the generic pool engine
// rather than bypassing it.
package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/coachpo/objpool/errs"
	"github.com/coachpo/objpool/pool"
)

// Manager dials raw *pgx.Conn connections for use as the pooled resource.
// Validate and Invalid are deliberately thin: the pool owns every lifecycle
// decision, Manager only knows how to talk to PostgreSQL.
type Manager struct {
	dsn string
}

// NewManager returns a Manager that dials dsn on every Create call.
func NewManager(dsn string) *Manager {
	return &Manager{dsn: strings.TrimSpace(dsn)}
}

var _ pool.Manager[*pgx.Conn] = (*Manager)(nil)

func (m *Manager) Create(ctx context.Context) (*pgx.Conn, error) {
	if m.dsn == "" {
		return nil, errs.New("postgres", errs.CodeInvalid, errs.WithMessage("dsn must not be empty"))
	}
	conn, err := pgx.Connect(ctx, m.dsn)
	if err != nil {
		return nil, errs.New("postgres", errs.CodeCreateFailed, errs.WithCause(err), errs.WithMessage("dial postgres"))
	}
	return conn, nil
}

func (m *Manager) Validate(ctx context.Context, po *pool.PooledObject[*pgx.Conn]) bool {
	conn := po.Object()
	if conn == nil || conn.IsClosed() {
		return false
	}
	return conn.Ping(ctx) == nil
}

func (m *Manager) Invalid(ctx context.Context, po *pool.PooledObject[*pgx.Conn]) error {
	conn := po.Object()
	if conn == nil || conn.IsClosed() {
		return nil
	}
	if err := conn.Close(ctx); err != nil {
		return errs.New("postgres", errs.CodeInvalid, errs.WithCause(err), errs.WithMessage("close connection"))
	}
	return nil
}
