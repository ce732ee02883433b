package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coachpo/objpool/config"
	"github.com/coachpo/objpool/persistence/postgres"
	"github.com/coachpo/objpool/pool"
)

var (
	testDSN     string
	pgContainer testcontainers.Container
	setupErr    error
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "objpool"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}
	pgContainer = container

	if testDSN, setupErr = buildDSN(ctx); setupErr != nil {
		fmt.Fprintf(os.Stderr, "postgres pool tests skipped: %v\n", setupErr)
	}

	exitCode := m.Run()

	if pgContainer != nil {
		_ = pgContainer.Terminate(ctx)
	}
	os.Exit(exitCode)
}

func buildDSN(ctx context.Context) (string, error) {
	host, err := pgContainer.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}
	return fmt.Sprintf("postgres://postgres:secret@%s:%s/objpool?sslmode=disable", host, port.Port()), nil
}

func TestPoolBorrowsValidatesAndReturnsPostgresConnection(t *testing.T) {
	if setupErr != nil {
		t.Skipf("postgres setup unavailable: %v", setupErr)
	}
	ctx := context.Background()

	mgr := postgres.NewManager(testDSN)
	p, err := pool.New[*pgx.Conn]("postgres-integration", mgr, nil,
		config.WithMaxPoolSize(2),
		config.WithValidateOnBorrow(true),
		config.WithPollTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	conn, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	var result int
	if err := conn.QueryRow(ctx, "select 1").Scan(&result); err != nil {
		t.Fatalf("query: %v", err)
	}
	if result != 1 {
		t.Fatalf("expected 1, got %d", result)
	}
	if err := p.Return(ctx, conn); err != nil {
		t.Fatalf("return: %v", err)
	}

	again, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("second borrow: %v", err)
	}
	if again != conn {
		t.Fatalf("expected the validated connection to be reused")
	}
	if err := p.Return(ctx, again); err != nil {
		t.Fatalf("second return: %v", err)
	}

	stats := p.Stats()
	if stats.CreatedCnt != 1 {
		t.Fatalf("expected a single dial, got createdCnt=%d", stats.CreatedCnt)
	}
}
