// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"pgshim/cli/internal/errors"
)

// FormatFailure explains a failed statement in a user-friendly way. Both query
// forms are shown when the error carries them.
func FormatFailure(err error) string {
	if err == nil {
		return ""
	}

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Query Failed"))
	builder.WriteString("\n\n")

	switch errors.KindOf(err) {
	case errors.ParameterCountMismatch:
		builder.WriteString("The number of parameters does not match the placeholders in the query.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • A parameter is missing from the call\n")
		builder.WriteString("  • A '?' sits inside a string literal and is not a placeholder\n")

	case errors.UnsupportedConstruct:
		builder.WriteString("PostgreSQL could not parse the translated query.\n")
		builder.WriteString("This could mean:\n")
		builder.WriteString("  • The query uses a MySQL function with no translation rule\n")
		builder.WriteString("  • A function call was written with an unexpected number of arguments\n")

	case errors.Timeout:
		builder.WriteString("The query did not finish in time.\n")
		builder.WriteString("Check statement_timeout and the query plan.\n")

	case errors.ConnectFailed:
		builder.WriteString("The database could not be reached.\n")
		builder.WriteString("Run 'pgshim dbinfo' to check the configured connection.\n")

	case errors.ConfigInvalid:
		builder.WriteString("The configuration is not usable.\n")

	default:
		builder.WriteString("The database rejected the statement.\n")
	}

	if source, target, ok := errors.Queries(err); ok {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("  source: %s\n", Mask(source)))
		builder.WriteString(fmt.Sprintf("  target: %s\n", Mask(target)))
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	return builder.String()
}

// PresentFailure prints FormatFailure to stdout.
func PresentFailure(err error) {
	fmt.Println()
	fmt.Println(FormatFailure(err))
	fmt.Println()
}

// PresentError formats an error that carries no kind as a single masked line.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}
