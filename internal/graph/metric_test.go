package graph

import (
	"testing"

	"github.com/leapstack-labs/sqlplan/pkg/core"
	"github.com/stretchr/testify/assert"
)

func testMetric(mutate ...func(*Metric)) *Metric {
	model := "ref('orders')"
	m := &Metric{
		NodeIdentity: NodeIdentity{
			Name:         "order_count",
			ResourceType: core.ResourceMetric,
			PackageName:  "analytics",
			UniqueID:     "metric.analytics.order_count",
		},
		FQN:               []string{"analytics", "order_count"},
		Label:             "Order count",
		CalculationMethod: "count",
		Expression:        "order_id",
		TimeGrains:        []string{"day", "week"},
		Model:             &model,
		Config:            MetricConfig{Enabled: true},
	}
	for _, fn := range mutate {
		fn(m)
	}
	return m
}

func TestMetric_SameContents(t *testing.T) {
	assert.True(t, testMetric().SameContents(nil),
		"a metric with no previous version counts as unchanged")
	assert.True(t, testMetric().SameContents(testMetric()))

	recalculated := testMetric(func(m *Metric) { m.CalculationMethod = "sum" })
	assert.False(t, recalculated.SameContents(testMetric()))

	reexpressed := testMetric(func(m *Metric) { m.Expression = "amount" })
	assert.False(t, reexpressed.SameContents(testMetric()))

	regrained := testMetric(func(m *Metric) { m.TimeGrains = []string{"day"} })
	assert.False(t, regrained.SameContents(testMetric()))

	filtered := testMetric(func(m *Metric) {
		m.Filters = []MetricFilter{{Field: "status", Operator: "=", Value: "'done'"}}
	})
	assert.False(t, filtered.SameContents(testMetric()))

	windowed := testMetric(func(m *Metric) {
		count, period := 7, "day"
		m.Window = &MetricTime{Count: &count, Period: &period}
	})
	assert.False(t, windowed.SameContents(testMetric()))

	tagged := testMetric(func(m *Metric) { m.Tags = []string{"finance"} })
	assert.True(t, tagged.SameContents(testMetric()), "tag edits are not changes")
}
