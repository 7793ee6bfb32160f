// Package mds implements the Metadata Driver (spec.md §4.2): a thin
// session-oriented wrapper over a local transactional store holding the
// single `metadata` table described in spec.md §3.
//
// The backing store is a single-file SQLite database opened through GORM
// (github.com/glebarez/sqlite + gorm.io/gorm), the same stack the teacher
// uses for its control-plane database (pkg/controlplane/store/gorm.go).
// GORM is used purely as a connection/transaction manager here: statements
// are raw, parameterised SQL via tx.Exec/tx.Raw, never GORM models, so the
// driver keeps spec.md's exec(statement, params) -> rows contract instead
// of an ORM's record-mapping one.
package mds

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ericlee/eoss/internal/eosserrors"
	"github.com/ericlee/eoss/internal/logger"
)

// Pool owns the single underlying database connection for the configured
// METADATA_DB_PATH. One Pool is created at process startup and shared by
// every request's Session, matching spec.md §9's "pooled design" allowance:
// sessions are never shared across concurrent requests, only the
// connection pool is.
type Pool struct {
	db    *gorm.DB
	table string
	log   *logger.Logger
}

// SetLogger attaches the mds_client.log sink (spec.md §6's "Persisted
// layout") that every Session opened afterward logs statements and
// failures to. A nil logger (the default) disables this logging, which
// newTestPool-style callers rely on.
func (p *Pool) SetLogger(log *logger.Logger) {
	p.log = log
}

// Open establishes the shared connection pool against the SQLite file at
// path. It does not create the schema; that is the bootstrap script's job
// (spec.md §4.2).
func Open(path, table string) (*Pool, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, eosserrors.NewConnectError(err)
	}

	return &Pool{db: db, table: table}, nil
}

// Table returns the configured METADATA_DB_TABLE name.
func (p *Pool) Table() string { return p.table }

// Close releases the pool's underlying connection. Called at process
// shutdown, not per-request.
func (p *Pool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewSession opens a fresh session (spec.md's open()) bound to a new
// transaction. A session is never shared between concurrent requests;
// one request may open several in turn (the coordinator opens one per
// committed step of a PUT). Close each session when done.
func (p *Pool) NewSession() (*Session, error) {
	tx := p.db.Begin()
	if tx.Error != nil {
		if p.log != nil {
			p.log.Exception("failed to open session", tx.Error)
		}
		return nil, eosserrors.NewConnectError(tx.Error)
	}
	return &Session{tx: tx, table: p.table, log: p.log}, nil
}

// Session is one request's metadata-store transaction.
type Session struct {
	tx        *gorm.DB
	table     string
	committed bool
	log       *logger.Logger
}

// Table returns the configured METADATA_DB_TABLE name.
func (s *Session) Table() string { return s.table }

// Row is one fetched row, keyed by column name. Values follow SQLite's
// dynamic typing: int64, float64, string, []byte, or nil.
type Row map[string]any

// Exec runs a parameterised, non-query statement (INSERT/UPDATE/DELETE).
// Parameters are always positionally bound (spec.md §4.2): never format
// identifiers or values into the statement text.
func (s *Session) Exec(statement string, params ...any) error {
	if err := s.tx.Exec(statement, params...).Error; err != nil {
		if s.log != nil {
			s.log.Exception("exec failed", err, "statement", statement)
		}
		return eosserrors.NewExecError(err, statement)
	}
	if s.log != nil {
		s.log.Debug("exec", "statement", statement)
	}
	return nil
}

// Query runs a parameterised SELECT and returns every matching row. A
// query that matches nothing returns an empty, non-nil slice: spec.md §9
// calls out the original's ambiguous "fetchall returns None on success"
// code path and requires "no rows" to be unambiguous from a true failure,
// which is reported as an error instead.
func (s *Session) Query(statement string, params ...any) ([]Row, error) {
	rows, err := s.tx.Raw(statement, params...).Rows()
	if err != nil {
		if s.log != nil {
			s.log.Exception("query failed", err, "statement", statement)
		}
		return nil, eosserrors.NewExecError(err, statement)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		if s.log != nil {
			s.log.Exception("query failed", err, "statement", statement)
		}
		return nil, eosserrors.NewExecError(err, statement)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			if s.log != nil {
				s.log.Exception("query scan failed", err, "statement", statement)
			}
			return nil, eosserrors.NewExecError(err, statement)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		if s.log != nil {
			s.log.Exception("query failed", err, "statement", statement)
		}
		return nil, eosserrors.NewExecError(err, statement)
	}

	if s.log != nil {
		s.log.Debug("query", "statement", statement, "rows", len(result))
	}
	return result, nil
}

// Commit commits every statement executed on this session.
func (s *Session) Commit() error {
	if err := s.tx.Commit().Error; err != nil {
		if s.log != nil {
			s.log.Exception("commit failed", err)
		}
		return eosserrors.NewCommitError(err)
	}
	s.committed = true
	if s.log != nil {
		s.log.Debug("commit")
	}
	return nil
}

// Close releases the session. If Commit was never called, any pending
// work is rolled back, matching the "fails unconditionally releases
// resources" contract of spec.md §4.2 — Close itself never returns a
// reportable error to the caller.
func (s *Session) Close() error {
	if !s.committed {
		s.tx.Rollback()
	}
	return nil
}

// CreateTableStatement returns the bootstrap DDL from spec.md §4.2 for the
// configured table name.
func CreateTableStatement(table string) string {
	return fmt.Sprintf(
		"CREATE TABLE %s (id STRING, filename STRING, version STRING, size INTEGER, timestamp INTEGER, state INTEGER)",
		table,
	)
}
