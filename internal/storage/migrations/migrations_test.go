package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, postgresDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_entities.sql"}, pg)

	ch, err := sqlFiles(ClickhouseFS, clickhouseDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_pool_prices.sql"}, ch)
}

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y UInt8) ENGINE = Memory;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Contains(t, stmts[1], "CREATE TABLE b")
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/neuron")
	require.NoError(t, err)
	assert.Equal(t, "neuron", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
