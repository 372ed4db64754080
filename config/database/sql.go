package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
)

type sqlInstance struct {
	driverName string
	db         *sql.DB
	closeOnce  sync.Once
	closeErr   error
}

func (s *sqlInstance) ReadDB() *sql.DB {
	return s.db
}
func (s *sqlInstance) WriteDB() *sql.DB {
	return s.db
}
func (s *sqlInstance) Health() map[string]error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return map[string]error{
		"sql_" + s.driverName: s.db.PingContext(ctx),
	}
}

// Disconnect close connection pool once, next call return the first close result
func (s *sqlInstance) Disconnect(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

type (
	sqlOption struct {
		maxOpenConns int
		maxIdleConns int
	}

	// SQLOptionFunc type
	SQLOptionFunc func(*sqlOption)
)

// SQLSetMaxOpenConns option func, zero or negative means unlimited
func SQLSetMaxOpenConns(n int) SQLOptionFunc {
	return func(o *sqlOption) {
		o.maxOpenConns = n
	}
}

// SQLSetMaxIdleConns option func
func SQLSetMaxIdleConns(n int) SQLOptionFunc {
	return func(o *sqlOption) {
		o.maxIdleConns = n
	}
}

// InitSQLDatabase open sql connection pool, connection is established lazily by database/sql
func InitSQLDatabase(driverName, dsn string, opts ...SQLOptionFunc) (interfaces.SQLDatabase, error) {
	opt := sqlOption{maxIdleConns: 2}
	for _, o := range opts {
		o(&opt)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(opt.maxOpenConns)
	db.SetMaxIdleConns(opt.maxIdleConns)

	return WrapSQLDatabase(driverName, db), nil
}

// WrapSQLDatabase wrap existing pool
func WrapSQLDatabase(driverName string, db *sql.DB) interfaces.SQLDatabase {
	return &sqlInstance{driverName: driverName, db: db}
}

// DisconnectWithLog disconnect database and print status line
func DisconnectWithLog(ctx context.Context, name string, db interfaces.SQLDatabase) (err error) {
	deferFunc := logger.LogWithDefer(name + ": disconnect...")
	defer func() {
		if err != nil {
			logger.LogEf("%s: %v", name, err)
		}
		deferFunc()
	}()
	return db.Disconnect(ctx)
}
