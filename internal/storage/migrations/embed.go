// Package migrations holds the schema of the entity stores.
package migrations

import "embed"

// Directories of the embedded migration files, one numbered .sql file per step.
const (
	postgresDir   = "postgres"
	clickhouseDir = "clickhouse"
)

// PostgresFS embeds the entity tables and the ingestion cursor.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the pool price snapshot table.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
