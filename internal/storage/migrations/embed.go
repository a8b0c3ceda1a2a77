// Package migrations ships the schema with the binary: the Postgres
// tables for strategies, trades, cycles and treasury snapshots, and the
// ClickHouse observation history. Files apply in lexical order and must
// stay idempotent so every startup can re-run them.
package migrations

import "embed"

// PostgresFS holds the core schema applied by cmd/server and the
// maintenance CLIs.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the token observation history schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
