// Package postgres registers the PostgreSQL adapter metadata.
package postgres

import (
	"github.com/leapstack-labs/sqlplan/pkg/adapter"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

func init() {
	adapter.Register(adapter.Info{
		Type: "postgres",
		DefaultQuotePolicy: core.QuotePolicy{
			Database:   true,
			Schema:     true,
			Identifier: true,
		},
		CredentialAliases: map[string]string{
			"dbname": "database",
			"pass":   "password",
		},
	})
}
