package graph

import "time"

// MetricTime is a relative time window a metric is evaluated over.
type MetricTime struct {
	Count  *int    `json:"count,omitempty" yaml:"count"`
	Period *string `json:"period,omitempty" yaml:"period"`
}

// MetricFilter restricts the rows a metric aggregates.
type MetricFilter struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    string `json:"value" yaml:"value"`
}

// Metric is a named aggregation defined over a model. Like exposures,
// metrics carry dependencies but no executable body.
type Metric struct {
	NodeIdentity
	FQN               []string       `json:"fqn"`
	Description       string         `json:"description,omitempty"`
	Label             string         `json:"label"`
	CalculationMethod string         `json:"calculation_method"`
	Expression        string         `json:"expression"`
	Filters           []MetricFilter `json:"filters,omitempty"`
	TimeGrains        []string       `json:"time_grains,omitempty"`
	Dimensions        []string       `json:"dimensions,omitempty"`
	Timestamp         *string        `json:"timestamp,omitempty"`
	Window            *MetricTime    `json:"window,omitempty"`
	Model             *string        `json:"model,omitempty"`
	ModelUniqueID     *string        `json:"model_unique_id,omitempty"`
	Meta              map[string]any `json:"meta,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Config            MetricConfig   `json:"config"`
	UnrenderedConfig  map[string]any `json:"unrendered_config,omitempty"`
	Sources           [][]string     `json:"sources"`
	DependsOn         DependsOn      `json:"depends_on"`
	Refs              [][]string     `json:"refs"`
	Metrics           [][]string     `json:"metrics"`
	CreatedAt         time.Time      `json:"created_at"`
}

// DependsOnNodes returns the resolved upstream edges.
func (m *Metric) DependsOnNodes() []string { return m.DependsOn.Nodes }

func (m *Metric) SameModel(old *Metric) bool { return eqStrPtr(m.Model, old.Model) }

func (m *Metric) SameWindow(old *Metric) bool { return deepEqualAny(m.Window, old.Window) }

func (m *Metric) SameDimensions(old *Metric) bool {
	return deepEqualAny(m.Dimensions, old.Dimensions)
}

func (m *Metric) SameFilters(old *Metric) bool { return deepEqualAny(m.Filters, old.Filters) }

func (m *Metric) SameDescription(old *Metric) bool { return m.Description == old.Description }

func (m *Metric) SameLabel(old *Metric) bool { return m.Label == old.Label }

func (m *Metric) SameCalculationMethod(old *Metric) bool {
	return m.CalculationMethod == old.CalculationMethod
}

func (m *Metric) SameExpression(old *Metric) bool { return m.Expression == old.Expression }

func (m *Metric) SameTimestamp(old *Metric) bool { return eqStrPtr(m.Timestamp, old.Timestamp) }

func (m *Metric) SameTimeGrains(old *Metric) bool {
	return deepEqualAny(m.TimeGrains, old.TimeGrains)
}

func (m *Metric) SameConfig(old *Metric) bool {
	return SameConfigContents(m.UnrenderedConfig, old.UnrenderedConfig)
}

// SameContents reports whether the metric is unchanged for state
// comparison; a metric without a previous version counts as unchanged.
func (m *Metric) SameContents(old *Metric) bool {
	if old == nil {
		return true
	}
	return SameFQN(m.FQN, old.FQN) &&
		m.SameModel(old) &&
		m.SameWindow(old) &&
		m.SameDimensions(old) &&
		m.SameFilters(old) &&
		m.SameDescription(old) &&
		m.SameLabel(old) &&
		m.SameCalculationMethod(old) &&
		m.SameExpression(old) &&
		m.SameTimestamp(old) &&
		m.SameTimeGrains(old) &&
		m.SameConfig(old)
}
