// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pgshim/cli/internal/config"
	"pgshim/cli/internal/connerrors"
	"pgshim/cli/internal/dsn"
	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/keychain"
	"pgshim/cli/internal/sqlexec"
	"pgshim/cli/internal/translate"
)

const pingTimeout = 5 * time.Second

// keychainStore opens the keychain only when env vars did not supply a DSN.
type keychainStore struct{}

func (keychainStore) LoadDBDSN() (string, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return "", err
	}
	return km.LoadDBDSN()
}

// resolveDSN returns the normalised DSN and where it came from.
func resolveDSN() (string, string, error) {
	raw, source, err := config.ResolveDSN(cfg, keychainStore{})
	if err != nil {
		return "", "", err
	}
	normalized, err := dsn.Parse(raw)
	if err != nil {
		return "", source, errors.Wrap(errors.ConfigInvalid, "DSN from "+source+" is not usable", err)
	}
	return normalized, source, nil
}

// connectTarget resolves the DSN and the host name used in messages.
func connectTarget() (string, string, error) {
	url, _, err := resolveDSN()
	if err != nil {
		return "", "", err
	}
	host := "the database"
	if info, err := dsn.ParseInfo(url); err == nil {
		host = connerrors.HostOf(info.Host, info.Port)
	}
	return url, host, nil
}

// openPool connects to the configured database and verifies it with a ping.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	url, host, err := connectTarget()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "invalid connection settings", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, connerrors.FormatConnectError(err, "connecting", host)
	}
	return pool, nil
}

// openDB is openPool over database/sql and lib/pq.
func openDB(ctx context.Context) (*sql.DB, error) {
	url, host, err := connectTarget()
	if err != nil {
		return nil, err
	}

	db, err := sqlexec.OpenPostgres(url)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "invalid connection settings", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, connerrors.FormatConnectError(err, "connecting", host)
	}
	return db, nil
}

// openDriver connects with the client library named by db.driver. The
// returned func releases the connection.
func openDriver(ctx context.Context) (sqlexec.Driver, func(), error) {
	name, err := cfg.DB.DriverName()
	if err != nil {
		return nil, nil, err
	}
	if name == config.DriverPq {
		db, err := openDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		return sqlexec.NewDBDriver(db), func() { db.Close() }, nil
	}
	pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sqlexec.NewPgxDriver(pool), pool.Close, nil
}

func newTranslator() *translate.Translator {
	return translate.New(cfg.Translate.TranslatorOptions()...)
}

// statementContext applies db.statement_timeout to ctx.
func statementContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	d, err := cfg.DB.Timeout()
	if err != nil {
		return nil, nil, err
	}
	if d == 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, cancel, nil
}
