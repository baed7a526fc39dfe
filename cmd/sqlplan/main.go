// Package main is the sqlplan entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlplan/internal/cli"
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/snowflake"
)

func main() {
	os.Exit(cli.Execute())
}
