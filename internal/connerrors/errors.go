// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package connerrors turns failures to reach PostgreSQL into messages a user
// can act on.
package connerrors

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pterm/pterm"

	"pgshim/cli/internal/errors"
)

// Cause is the detected reason a connection failed.
type Cause int

const (
	Unknown Cause = iota
	Timeout
	DNS
	Refused
	TLS
	Auth
	NoDatabase
)

// FormatConnectError prints an explanation for err and returns it wrapped as
// a ConnectFailed error.
func FormatConnectError(err error, context, host string) error {
	if err == nil {
		return nil
	}
	displayErrorMessage(err, context, host)
	return errors.Wrap(errors.ConnectFailed, context, err)
}

// Classify detects why a connection attempt failed.
func Classify(err error) Cause {
	switch {
	case err == nil:
		return Unknown
	case isAuthError(err):
		return Auth
	case sqlState(err) == "3D000":
		return NoDatabase
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isTimeoutError(err):
		return Timeout
	case isSSLError(err):
		return TLS
	}
	return Unknown
}

func displayErrorMessage(err error, context, host string) {
	switch Classify(err) {
	case Timeout:
		showTimeoutError(context, host)
	case DNS:
		showDNSError(context, host)
	case Refused:
		showConnectionRefusedError(context, host)
	case TLS:
		showSSLError(context)
	case Auth:
		showAuthError(context)
	case NoDatabase:
		showNoDatabaseError(context)
	default:
		showGenericError(context, host, err.Error())
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isAuthError covers password failures and rejected roles.
func isAuthError(err error) bool {
	switch sqlState(err) {
	case "28P01", "28000":
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "password authentication failed")
}

func isTimeoutError(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "ssl") ||
		strings.Contains(errStr, "certificate")
}

func showTimeoutError(context, host string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Printf("%s took too long to respond. This could mean:\n", host)
	pterm.Println("  • The database is under heavy load")
	pterm.Println("  • A firewall is dropping packets to port 5432")
	pterm.Println("  • db.statement_timeout is set too low")
	pterm.Println()
}

func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("Check the host name in your connection string and your DNS settings.")
	pterm.Println()
}

func showConnectionRefusedError(context, host string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Printf("Nothing is accepting connections at %s. Check that:\n", host)
	pterm.Println("  • PostgreSQL is running")
	pterm.Println("  • The port in the connection string is right")
	pterm.Println("  • listen_addresses allows remote connections")
	pterm.Println()
}

func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("The server and client could not agree on TLS. Try:")
	pterm.Println("  • sslmode=disable for a local database")
	pterm.Println("  • sslmode=require when the server has no trusted certificate")
	pterm.Println()
}

func showAuthError(context string) {
	pterm.Printf("🔑 Authentication failed while %s\n", context)
	pterm.Println()
	pterm.Println("Check the user name and password, and that pg_hba.conf allows this client.")
	pterm.Println()
}

func showNoDatabaseError(context string) {
	pterm.Printf("🗄️  Database does not exist while %s\n", context)
	pterm.Println()
	pterm.Println("Create it first, e.g. createdb <name>, then run pgshim bootstrap.")
	pterm.Println()
}

func showGenericError(context, host, errDetails string) {
	pterm.Printf("❌ Cannot connect to %s while %s\n", host, context)
	pterm.Println()
	if errDetails != "" {
		shortErr := errDetails
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}

// HostOf returns host:port for messages, or "the database" when unknown.
func HostOf(host, port string) string {
	if host == "" {
		return "the database"
	}
	if port == "" {
		return host
	}
	return fmt.Sprintf("%s:%s", host, port)
}
