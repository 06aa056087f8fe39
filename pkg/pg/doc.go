// Package pg bootstraps the PostgreSQL layer for the identity engine using
// the pgx/v5 driver.
//
// It provides a small set of cooperating helpers:
//
//   - Config: pool and retry settings populated from environment variables
//     via github.com/caarlos0/env.
//
//   - Connect: opens a *pgxpool.Pool from Config, retrying with linear
//     backoff until the database is reachable.
//
//   - Migrate: applies goose migrations from an embedded filesystem against
//     the same pool, so the schema is current before the service accepts
//     traffic.
//
//   - Healthcheck: a func(context.Context) error probe for readiness
//     endpoints.
//
// Error helpers such as [IsDuplicateKeyError] and [IsNotFoundError] classify
// *pgconn.PgError and pgx sentinel errors so the identity resolution logic
// can react to unique constraint races without inspecting SQLSTATE codes
// itself.
package pg
