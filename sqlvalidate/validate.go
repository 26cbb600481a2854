//go:build integration

// Package sqlvalidate confirms that emitted SQL text is syntactically
// acceptable to a real database engine, without ever executing it. It is
// test tooling, not part of the core translator: the core library never
// opens a network connection.
package sqlvalidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	"golang.org/x/net/proxy"
)

// Validate opens a connection described by the SQLVALIDATE_DSN /
// SQLVALIDATE_DRIVER environment variables (mirroring the reference
// project's SQLSERVER_DSN/SQLSERVER_DRIVER convention) and calls
// PrepareContext -- never ExecContext -- on sqlText, returning any error
// the target engine's parser reports. SQLVALIDATE_DRIVER must be
// "sqlserver" or "postgres".
func Validate(ctx context.Context, sqlText string) error {
	dsn := os.Getenv("SQLVALIDATE_DSN")
	if dsn == "" {
		return errors.New("sqlvalidate: SQLVALIDATE_DSN is not set")
	}
	driver := os.Getenv("SQLVALIDATE_DRIVER")
	if driver == "" {
		return errors.New("sqlvalidate: SQLVALIDATE_DRIVER is not set")
	}

	db, err := open(driver, dsn)
	if err != nil {
		return fmt.Errorf("sqlvalidate: opening %s: %w", driver, err)
	}
	defer db.Close()

	stmt, err := db.PrepareContext(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("sqlvalidate: %s rejected statement: %w", driver, err)
	}
	return stmt.Close()
}

// open mirrors the reference project's OpenSocks5Sql: it builds a
// connector for the named driver and, when SQLVALIDATE_SOCKS5 is set,
// routes its connections through a SOCKS5 proxy.
func open(driver, dsn string) (*sql.DB, error) {
	proxyAddr := os.Getenv("SQLVALIDATE_SOCKS5")

	switch driver {
	case "sqlserver":
		connector, err := mssql.NewConnector(dsn)
		if err != nil {
			return nil, err
		}
		if proxyAddr != "" {
			dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("socks5 dialer: %w", err)
			}
			connector.Dialer = dialer.(proxy.ContextDialer)
		}
		return sql.OpenDB(connector), nil

	case "postgres":
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		if proxyAddr != "" {
			dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("socks5 dialer: %w", err)
			}
			contextDialer := dialer.(proxy.ContextDialer)
			cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return contextDialer.DialContext(ctx, network, addr)
			}
		}
		return stdlib.OpenDB(*cfg), nil

	default:
		return nil, fmt.Errorf("unknown SQLVALIDATE_DRIVER %q (want \"sqlserver\" or \"postgres\")", driver)
	}
}
