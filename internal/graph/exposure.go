package graph

import "time"

// ExposureType categorizes how an exposure is consumed.
type ExposureType string

const (
	ExposureDashboard   ExposureType = "dashboard"
	ExposureNotebook    ExposureType = "notebook"
	ExposureAnalysis    ExposureType = "analysis"
	ExposureML          ExposureType = "ml"
	ExposureApplication ExposureType = "application"
)

// MaturityLow, MaturityMedium and MaturityHigh are the allowed
// exposure maturity levels.
const (
	MaturityLow    = "low"
	MaturityMedium = "medium"
	MaturityHigh   = "high"
)

// Owner identifies who is responsible for an exposure.
type Owner struct {
	Email string  `json:"email" yaml:"email"`
	Name  *string `json:"name,omitempty" yaml:"name"`
}

// Exposure is a downstream consumer of the graph: a dashboard, a
// notebook, an ML pipeline. It has dependencies but no body and is
// never materialized.
type Exposure struct {
	NodeIdentity
	FQN              []string       `json:"fqn"`
	Type             ExposureType   `json:"type"`
	Owner            Owner          `json:"owner"`
	Description      string         `json:"description,omitempty"`
	Label            *string        `json:"label,omitempty"`
	Maturity         *string        `json:"maturity,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Config           ExposureConfig `json:"config"`
	UnrenderedConfig map[string]any `json:"unrendered_config,omitempty"`
	URL              *string        `json:"url,omitempty"`
	DependsOn        DependsOn      `json:"depends_on"`
	Refs             [][]string     `json:"refs"`
	Sources          [][]string     `json:"sources"`
	Metrics          [][]string     `json:"metrics"`
	CreatedAt        time.Time      `json:"created_at"`
}

// DependsOnNodes returns the resolved upstream edges.
func (e *Exposure) DependsOnNodes() []string { return e.DependsOn.Nodes }

func (e *Exposure) SameDependsOn(old *Exposure) bool {
	return sameNodeSet(e.DependsOn.Nodes, old.DependsOn.Nodes)
}

func (e *Exposure) SameDescription(old *Exposure) bool { return e.Description == old.Description }

func (e *Exposure) SameLabel(old *Exposure) bool { return eqStrPtr(e.Label, old.Label) }

func (e *Exposure) SameMaturity(old *Exposure) bool { return eqStrPtr(e.Maturity, old.Maturity) }

func (e *Exposure) SameOwner(old *Exposure) bool {
	return e.Owner.Email == old.Owner.Email && eqStrPtr(e.Owner.Name, old.Owner.Name)
}

func (e *Exposure) SameExposureType(old *Exposure) bool { return e.Type == old.Type }

func (e *Exposure) SameURL(old *Exposure) bool { return eqStrPtr(e.URL, old.URL) }

func (e *Exposure) SameConfig(old *Exposure) bool {
	return SameConfigContents(e.UnrenderedConfig, old.UnrenderedConfig)
}

// SameContents reports whether the exposure is unchanged for state
// comparison. An exposure with no previous version counts as
// unchanged: exposures have no build products whose absence would
// matter.
func (e *Exposure) SameContents(old *Exposure) bool {
	if old == nil {
		return true
	}
	return SameFQN(e.FQN, old.FQN) &&
		e.SameExposureType(old) &&
		e.SameOwner(old) &&
		e.SameMaturity(old) &&
		e.SameURL(old) &&
		e.SameDescription(old) &&
		e.SameLabel(old) &&
		e.SameDependsOn(old) &&
		e.SameConfig(old)
}
