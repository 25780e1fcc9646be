// Package pg provides PostgreSQL utilities built on the pgx/v5 driver:
// connection pooling with retry, goose schema migrations, health checks,
// and common error helpers. The billing stores in internal/storage build
// on this package.
package pg
