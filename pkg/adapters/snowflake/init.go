// Package snowflake registers the Snowflake adapter metadata.
// Snowflake uppercases unquoted identifiers, so nothing is quoted by
// default.
package snowflake

import (
	"github.com/leapstack-labs/sqlplan/pkg/adapter"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

func init() {
	adapter.Register(adapter.Info{
		Type: "snowflake",
		DefaultQuotePolicy: core.QuotePolicy{
			Database:   false,
			Schema:     false,
			Identifier: false,
		},
	})
}
