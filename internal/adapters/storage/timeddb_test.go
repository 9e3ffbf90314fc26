package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"addressbook/internal/metrics"
)

func openTimedTestDB(t *testing.T) (*TimedDB, *observer.ObservedLogs) {
	t.Helper()
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)")
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	return NewTimedDB(db, zap.New(core), 0), logs
}

// TestTimedDB_LogsEveryOperation verifies each wrapped call emits one timing entry.
func TestTimedDB_LogsEveryOperation(t *testing.T) {
	tdb, logs := openTimedTestDB(t)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")
	require.NoError(t, err)

	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	require.NoError(t, err)
	count := 0
	for rows.Next() {
		count++
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, 1, count)

	var val string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val))
	assert.Equal(t, "hello", val)

	tx, err := tdb.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var ops []string
	for _, e := range logs.All() {
		ops = append(ops, e.ContextMap()["op"].(string))
	}
	assert.Equal(t, []string{"ExecContext", "QueryContext", "QueryRowContext", "BeginTx"}, ops)
	assert.Positive(t, testutil.CollectAndCount(metrics.QueryDuration))
}

// TestTimedDB_DefaultThreshold verifies non-positive thresholds fall back to the default.
func TestTimedDB_DefaultThreshold(t *testing.T) {
	tdb := NewTimedDB(&sql.DB{}, nil, -5)
	assert.Equal(t, float64(DefaultSlowQueryMs), tdb.threshold)
	assert.NotNil(t, tdb.logger)
}
