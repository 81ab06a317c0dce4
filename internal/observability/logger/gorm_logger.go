package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm output through the request-scoped zap logger, tagging
// each statement with the table and operation it touched.
type GormLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger logs failed and slow statements; logQueries adds every
// statement at debug level.
func NewGormLogger(base *zap.Logger, logQueries bool) *GormLogger {
	if base == nil {
		base = zap.L()
	}
	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}
	return &GormLogger{base: base, level: level, slow: slowQueryThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zap.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zap.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zap.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := WithContext(ctx, l.base).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		// Repositories translate not-found into a nil result.
		return
	case err != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		// Duplicate emails and double registrations are client errors.
		if l.level >= gormlogger.Warn {
			l.query(ctx, fc, elapsed, err, zap.WarnLevel, "gorm.constraint")
		}
	case err != nil && l.level >= gormlogger.Error:
		l.query(ctx, fc, elapsed, err, zap.ErrorLevel, "gorm.query")
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		l.query(ctx, fc, elapsed, nil, zap.WarnLevel, "gorm.slow_query")
	case l.level >= gormlogger.Info:
		l.query(ctx, fc, elapsed, nil, zap.DebugLevel, "gorm.query")
	}
}

// ParamsFilter drops bound values; they carry password hashes and emails.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) query(ctx context.Context, fc func() (string, int64), elapsed time.Duration, err error, level zapcore.Level, msg string) {
	sql, rows := fc()
	op, table := statementTarget(sql)
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("db.operation", op),
		zap.String("db.table", table),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if level != zap.DebugLevel || err != nil {
		fields = append(fields, zap.String("sql", strings.TrimSpace(sql)))
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := WithContext(ctx, l.base).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

var knownTables = map[string]struct{}{
	"accounts":          {},
	"posts":             {},
	"billing_customers": {},
	"subscriptions":     {},
	"schema_migrations": {},
}

// statementTarget returns the first DML verb and the table it addresses.
// Tables outside the schema are reported as "other".
func statementTarget(sql string) (string, string) {
	tokens := strings.Fields(strings.ToUpper(strings.TrimSpace(sql)))
	op := "UNKNOWN"
	table := "other"
	for i, token := range tokens {
		token = strings.Trim(token, "();")
		switch token {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			if op == "UNKNOWN" {
				op = token
			}
			if token == "UPDATE" && i+1 < len(tokens) {
				table = tableName(tokens[i+1], table)
			}
		case "FROM", "INTO":
			if i+1 < len(tokens) {
				table = tableName(tokens[i+1], table)
			}
		}
		if table != "other" && op != "UNKNOWN" {
			break
		}
	}
	return op, table
}

func tableName(token, fallback string) string {
	name := strings.ToLower(strings.Trim(token, "\"`();"))
	if _, ok := knownTables[name]; ok {
		return name
	}
	return fallback
}

var _ gormlogger.Interface = (*GormLogger)(nil)
