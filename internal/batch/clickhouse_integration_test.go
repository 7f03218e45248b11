//go:build integration

package batch

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/koustreak/tablecompare/internal/catalog"
	"github.com/koustreak/tablecompare/internal/compare"
	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/database/sqldb"
)

func TestCompareSchemaPairs_ClickHouse(t *testing.T) {
	ctx := context.Background()

	ctr, err := clickhouse.Run(ctx, "clickhouse/clickhouse-server:24.8-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	setup, err := sql.Open("clickhouse", dsn)
	require.NoError(t, err)
	defer setup.Close()

	for _, stmt := range []string{
		"CREATE DATABASE src",
		"CREATE DATABASE tgt",
		"CREATE TABLE src.orders (id UInt32, amount Float64) ENGINE = MergeTree ORDER BY id",
		"CREATE TABLE tgt.orders (id UInt32, amount Float64) ENGINE = MergeTree ORDER BY id",
		"CREATE TABLE src.events (kind String) ENGINE = MergeTree ORDER BY kind",
		"CREATE TABLE tgt.events (kind String) ENGINE = MergeTree ORDER BY kind",
		"CREATE VIEW src.big_orders AS SELECT * FROM src.orders WHERE amount > 100",
		"INSERT INTO src.orders SELECT number, number * 2 FROM numbers(100)",
		"INSERT INTO tgt.orders SELECT number, if(number = 42, 0, number * 2) FROM numbers(100)",
		"INSERT INTO src.events VALUES ('a'), ('a'), ('b')",
		"INSERT INTO tgt.events VALUES ('a'), ('b'), ('b')",
	} {
		_, err := setup.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	cfg := database.DefaultConfig(database.DriverClickHouse, dsn)
	wh, err := sqldb.New(ctx, cfg)
	require.NoError(t, err)
	defer wh.Close()

	acc := catalog.New(wh, nil)
	o := New(compare.New(wh, acc, compare.Options{}), acc, Options{Workers: 2})

	r, err := o.CompareSchemaPairs(ctx, "", []string{"src"}, "", []string{"tgt"})
	require.NoError(t, err)

	require.Equal(t, []string{"events", "orders"}, tableNames(r))
	for _, out := range r.Outcomes {
		require.Empty(t, out.Error)
		assert.Equal(t, compare.StatusMismatch, out.Status)
		assert.Equal(t, compare.Known(1), out.OnlyInSource)
		assert.Equal(t, compare.Known(1), out.OnlyInTarget)
	}
}
