package graph

import (
	"testing"

	"github.com/leapstack-labs/sqlplan/pkg/core"
	"github.com/stretchr/testify/assert"
)

func testMacro(sql string) *Macro {
	return &Macro{
		NodeIdentity: NodeIdentity{
			Name:         "cents_to_dollars",
			ResourceType: core.ResourceMacro,
			PackageName:  "analytics",
			UniqueID:     "macro.analytics.cents_to_dollars",
		},
		MacroSQL: sql,
	}
}

func TestMacro_SameContents(t *testing.T) {
	sql := "{% macro cents_to_dollars(col) %}{{ col }} / 100{% endmacro %}"

	assert.False(t, testMacro(sql).SameContents(nil))
	assert.True(t, testMacro(sql).SameContents(testMacro(sql)))
	assert.False(t, testMacro(sql).SameContents(testMacro(sql+" ")),
		"macro equality is plain template-text equality")
}

func TestMacro_Patch(t *testing.T) {
	m := testMacro("{% macro f() %}{% endmacro %}")
	before := m.CreatedAt

	m.Patch(MacroPatch{
		Name:        "cents_to_dollars",
		Description: "converts cents to dollars",
		Arguments:   []MacroArgument{{Name: "col"}},
		FileID:      "analytics://macros/schema.yml",
	})

	assert.Equal(t, "converts cents to dollars", m.Description)
	assert.Len(t, m.Arguments, 1)
	assert.True(t, m.CreatedAt.After(before))
}

func TestDocumentation_SameContents(t *testing.T) {
	doc := func(text string) *Documentation {
		return &Documentation{
			NodeIdentity: NodeIdentity{
				Name: "orders_doc", ResourceType: core.ResourceDoc,
				PackageName: "analytics", UniqueID: "doc.analytics.orders_doc",
			},
			BlockContents: text,
		}
	}

	assert.False(t, doc("One row per order.").SameContents(nil))
	assert.True(t, doc("One row per order.").SameContents(doc("One row per order.")))
	assert.False(t, doc("One row per order.").SameContents(doc("One row per line item.")))
}

func TestNodeIdentity_FileID(t *testing.T) {
	n := NodeIdentity{PackageName: "analytics", OriginalFilePath: "models/orders.sql"}
	assert.Equal(t, "analytics://models/orders.sql", n.FileID())
}
