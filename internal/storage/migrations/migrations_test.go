package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedFiles(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_init.sql", pg[0].name)
	assert.Contains(t, pg[0].sql, "CREATE TABLE IF NOT EXISTS trader_stats")

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Contains(t, ch[0].sql, "CREATE TABLE IF NOT EXISTS payouts")
}

func TestSplitStatements(t *testing.T) {
	stmts, err := splitStatements(`
-- header; with a semicolon
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (s String DEFAULT 'it''s') ENGINE = Memory;
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE a (x UInt8) ENGINE = Memory",
		"CREATE TABLE b (s String DEFAULT 'it''s') ENGINE = Memory",
	}, stmts)
}

func TestSplitStatements_RejectsSemicolonInLiteral(t *testing.T) {
	_, err := splitStatements(`INSERT INTO t VALUES ('a;b');`)
	assert.ErrorIs(t, err, errSemicolonInString)
}

func TestSplitStatements_EmbeddedClickhouse(t *testing.T) {
	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)

	stmts, err := splitStatements(ch[0].sql)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/t2e")
	require.NoError(t, err)
	assert.Equal(t, "t2e", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
