package test

import (
	"context"
	"log"
	"os"
	"testing"

	// Packages
	pg "github.com/mutablelogic/go-pg"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conn is a connection pool shared by the tests in a package.
type Conn struct {
	pg.PoolConn
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	envDatabaseURL = "POSTGRES_URL"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Main connects the shared pool from the POSTGRES_URL environment
// variable and runs the tests. When the variable is unset, tests which
// require a database are skipped.
func Main(m *testing.M, conn *Conn) {
	ctx := context.Background()

	if url := os.Getenv(envDatabaseURL); url != "" {
		pool, err := pg.NewPool(ctx, pg.WithURL(url))
		if err != nil {
			log.Println("unable to connect:", err)
			os.Exit(1)
		}
		if err := pool.Ping(ctx); err != nil {
			log.Println("unable to ping:", err)
			os.Exit(1)
		}
		conn.PoolConn = pool
	}

	exit := m.Run()

	if conn.PoolConn != nil {
		conn.PoolConn.Close()
	}
	os.Exit(exit)
}

// Begin returns the shared connection, skipping the test when no
// database is configured.
func (c Conn) Begin(t *testing.T) Conn {
	t.Helper()
	if c.PoolConn == nil {
		t.Skip("Skipping test,", envDatabaseURL, "is not set")
	}
	return c
}

// Close releases the connection returned by Begin. The pool itself stays
// open until Main returns.
func (c Conn) Close() {}
