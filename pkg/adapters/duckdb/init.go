// Package duckdb registers the DuckDB adapter metadata.
package duckdb

import (
	"github.com/leapstack-labs/sqlplan/pkg/adapter"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

func init() {
	adapter.Register(adapter.Info{
		Type: "duckdb",
		DefaultQuotePolicy: core.QuotePolicy{
			Database:   true,
			Schema:     true,
			Identifier: true,
		},
		CredentialAliases: map[string]string{
			"path": "database",
		},
	})
}
