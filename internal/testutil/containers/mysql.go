//go:build integration

package containers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

// MySQL container defaults. The database name matters only within the
// container's lifetime.
const (
	mysqlDatabase = "medvault_test"
	mysqlUsername = "medvault"
	mysqlPassword = "medvault"
)

// MySQLContainer wraps a testcontainers MySQL instance.
type MySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
}

// NewMySQLContainer starts a MySQL 8 container and waits until it accepts
// connections. The returned DSN has parseTime enabled so time columns scan
// into time.Time.
func NewMySQLContainer(ctx context.Context) (*MySQLContainer, error) {
	opts := []testcontainers.ContainerCustomizer{
		mysql.WithDatabase(mysqlDatabase),
		mysql.WithUsername(mysqlUsername),
		mysql.WithPassword(mysqlPassword),
	}

	container, err := mysql.RunContainer(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		// Background context so cleanup survives an expired parent.
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MySQLContainer{container: container, dsn: dsn}, nil
}

// DSN returns the connection string for the containerized database.
func (c *MySQLContainer) DSN() string {
	return c.dsn
}

// Terminate stops and removes the container.
func (c *MySQLContainer) Terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate mysql container: %w", err)
	}
	return nil
}
