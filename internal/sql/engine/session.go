package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/executor"
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/plan"
	"github.com/tuplebase/tuplebase/internal/sql/txn"
)

// Session is one client's handle onto an Engine, per spec §4.7. Every
// Execute call runs in its own implicit transaction — tuplebase never
// exposes BEGIN/COMMIT to SQL in this scope. ID tags every log line this
// Session emits so concurrent sessions over the same engine can be told
// apart, matching DiskEngine's own Logger convention.
type Session struct {
	ID     uuid.UUID
	engine txn.Engine
	log    *zap.SugaredLogger
}

// SessionOptions configures a Session. A nil Logger falls back to
// zap.NewNop(), mirroring kv.DiskEngineOptions.
type SessionOptions struct {
	Logger *zap.SugaredLogger
}

// NewSession opens a Session over engine.
func NewSession(engine txn.Engine, opts ...SessionOptions) *Session {
	var o SessionOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	id := uuid.New()
	return &Session{ID: id, engine: engine, log: log.With("session_id", id)}
}

// Execute parses, plans, and runs sql: parse -> plan -> begin -> execute,
// committing on success and rolling back on any failure, per spec §4.7.
func (s *Session) Execute(sql string) (executor.ResultSet, error) {
	s.log.Debugw("execute", "sql", sql)

	stmt, err := parser.Parse(sql)
	if err != nil {
		s.log.Debugw("parse failed", "error", err)
		return executor.ResultSet{}, err
	}
	node, err := plan.Build(stmt)
	if err != nil {
		s.log.Debugw("plan failed", "error", err)
		return executor.ResultSet{}, err
	}

	t, err := s.engine.Begin()
	if err != nil {
		return executor.ResultSet{}, err
	}

	rs, err := executor.Execute(node, t)
	if err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return executor.ResultSet{}, rbErr
		}
		s.log.Debugw("statement rolled back", "error", err)
		return executor.ResultSet{}, err
	}
	if err := t.Commit(); err != nil {
		return executor.ResultSet{}, err
	}
	return rs, nil
}

// GetTableNames opens a read-only transaction to list every table in the
// catalog, per spec §4.7.
func (s *Session) GetTableNames() ([]string, error) {
	t, err := s.engine.Begin()
	if err != nil {
		return nil, err
	}
	names, err := t.GetTableNames()
	if err != nil {
		_ = t.Rollback()
		return nil, err
	}
	return names, t.Commit()
}

// GetTable opens a read-only transaction to describe one table, per
// spec §4.7. It returns a human-readable CREATE TABLE-shaped string, the
// same rendering SHOW TABLE produces.
func (s *Session) GetTable(name string) (string, error) {
	t, err := s.engine.Begin()
	if err != nil {
		return "", err
	}
	table, ok, err := t.GetTable(name)
	if err != nil {
		_ = t.Rollback()
		return "", err
	}
	if !ok {
		_ = t.Rollback()
		return "", errs.New(errs.TableNotFound, "table %q not found", name)
	}
	if err := t.Commit(); err != nil {
		return "", err
	}
	return table.String(), nil
}
