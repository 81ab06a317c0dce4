package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestStatementTarget(t *testing.T) {
	cases := []struct {
		sql   string
		op    string
		table string
	}{
		{`SELECT * FROM "posts" WHERE status = 'PB'`, "SELECT", "posts"},
		{"INSERT INTO `accounts` (`id`,`email`) VALUES (?,?)", "INSERT", "accounts"},
		{`UPDATE "subscriptions" SET "status"=$1 WHERE id = $2`, "UPDATE", "subscriptions"},
		{`(DELETE FROM billing_customers WHERE id = 1)`, "DELETE", "billing_customers"},
		{`SELECT count(*) FROM sqlite_master`, "SELECT", "other"},
		{``, "UNKNOWN", "other"},
		{`VACUUM`, "UNKNOWN", "other"},
	}
	for _, tc := range cases {
		op, table := statementTarget(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func newObservedGormLogger(logQueries bool) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), logQueries), logs
}

func TestGormTraceTagsFailedStatement(t *testing.T) {
	l, logs := newObservedGormLogger(false)
	sql := func() (string, int64) { return `UPDATE "posts" SET "title"=$1`, 0 }

	l.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))

	entries := logs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "posts", fields["db.table"])
	assert.Equal(t, "UPDATE", fields["db.operation"])
}

func TestGormTraceDuplicateKeyIsWarning(t *testing.T) {
	l, logs := newObservedGormLogger(false)
	sql := func() (string, int64) { return `INSERT INTO "accounts" ("email") VALUES ($1)`, 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrDuplicatedKey)

	entries := logs.FilterMessage("gorm.constraint").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "accounts", entries[0].ContextMap()["db.table"])
}

func TestGormTraceSkipsRecordNotFound(t *testing.T) {
	l, logs := newObservedGormLogger(true)
	sql := func() (string, int64) { return `SELECT * FROM "subscriptions"`, 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)

	assert.Equal(t, 0, logs.Len())
}

func TestGormTraceQueriesOnlyWhenEnabled(t *testing.T) {
	sql := func() (string, int64) { return `SELECT * FROM "posts"`, 3 }

	quiet, quietLogs := newObservedGormLogger(false)
	quiet.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 0, quietLogs.Len())

	verbose, verboseLogs := newObservedGormLogger(true)
	verbose.Trace(context.Background(), time.Now(), sql, nil)
	entries := verboseLogs.FilterMessage("gorm.query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	_, hasSQL := entries[0].ContextMap()["sql"]
	assert.False(t, hasSQL)
}

func TestGormTraceSlowStatement(t *testing.T) {
	l, logs := newObservedGormLogger(false)
	sql := func() (string, int64) { return `SELECT * FROM "posts"`, 10 }

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

	entries := logs.FilterMessage("gorm.slow_query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "posts", entries[0].ContextMap()["db.table"])
}
