// Package main is the entry point for the pgshim CLI, which runs MySQL-style
// queries against PostgreSQL.
package main

import (
	"pgshim/cli/cmd"
)

func main() {
	cmd.Execute()
}
