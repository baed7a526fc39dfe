package graph

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// Manifest is the parsed project: every resource keyed by unique_id,
// with disabled resources kept aside so selectors can still explain
// why a name resolves to nothing.
type Manifest struct {
	Nodes     map[string]Resource          `json:"nodes"`
	Sources   map[string]*SourceDefinition `json:"sources"`
	Macros    map[string]*Macro            `json:"macros"`
	Docs      map[string]*Documentation    `json:"docs"`
	Exposures map[string]*Exposure         `json:"exposures"`
	Metrics   map[string]*Metric           `json:"metrics"`
	Disabled  map[string][]Resource        `json:"disabled"`
	Selectors map[string]map[string]any    `json:"selectors,omitempty"`
}

// NewManifest returns an empty manifest with all maps allocated.
func NewManifest() *Manifest {
	return &Manifest{
		Nodes:     map[string]Resource{},
		Sources:   map[string]*SourceDefinition{},
		Macros:    map[string]*Macro{},
		Docs:      map[string]*Documentation{},
		Exposures: map[string]*Exposure{},
		Metrics:   map[string]*Metric{},
		Disabled:  map[string][]Resource{},
	}
}

// DuplicateResourceError reports two enabled resources claiming the
// same unique_id.
type DuplicateResourceError struct {
	UniqueID string
	Kind     string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("found two %ss with the unique id %q", e.Kind, e.UniqueID)
}

// AddNode registers an executable node, rejecting duplicates.
func (m *Manifest) AddNode(node Resource) error {
	id := node.Ident().UniqueID
	if _, exists := m.Nodes[id]; exists {
		return &DuplicateResourceError{UniqueID: id, Kind: "node"}
	}
	m.Nodes[id] = node
	return nil
}

// AddSource registers a source definition, rejecting duplicates.
func (m *Manifest) AddSource(src *SourceDefinition) error {
	if _, exists := m.Sources[src.UniqueID]; exists {
		return &DuplicateResourceError{UniqueID: src.UniqueID, Kind: "source"}
	}
	m.Sources[src.UniqueID] = src
	return nil
}

// AddMacro registers a macro, rejecting duplicates.
func (m *Manifest) AddMacro(macro *Macro) error {
	if _, exists := m.Macros[macro.UniqueID]; exists {
		return &DuplicateResourceError{UniqueID: macro.UniqueID, Kind: "macro"}
	}
	m.Macros[macro.UniqueID] = macro
	return nil
}

// AddDoc registers a documentation block, rejecting duplicates.
func (m *Manifest) AddDoc(doc *Documentation) error {
	if _, exists := m.Docs[doc.UniqueID]; exists {
		return &DuplicateResourceError{UniqueID: doc.UniqueID, Kind: "doc"}
	}
	m.Docs[doc.UniqueID] = doc
	return nil
}

// AddExposure registers an exposure, rejecting duplicates.
func (m *Manifest) AddExposure(exp *Exposure) error {
	if _, exists := m.Exposures[exp.UniqueID]; exists {
		return &DuplicateResourceError{UniqueID: exp.UniqueID, Kind: "exposure"}
	}
	m.Exposures[exp.UniqueID] = exp
	return nil
}

// AddMetric registers a metric, rejecting duplicates.
func (m *Manifest) AddMetric(metric *Metric) error {
	if _, exists := m.Metrics[metric.UniqueID]; exists {
		return &DuplicateResourceError{UniqueID: metric.UniqueID, Kind: "metric"}
	}
	m.Metrics[metric.UniqueID] = metric
	return nil
}

// AddDisabled stashes a disabled resource. Duplicates are allowed
// here: several disabled versions of the same id can coexist.
func (m *Manifest) AddDisabled(node Resource) {
	id := node.Ident().UniqueID
	m.Disabled[id] = append(m.Disabled[id], node)
}

// ResourceIDs returns every enabled resource id in sorted order.
func (m *Manifest) ResourceIDs() []string {
	ids := make([]string, 0, len(m.Nodes)+len(m.Sources)+len(m.Exposures)+len(m.Metrics))
	for id := range m.Nodes {
		ids = append(ids, id)
	}
	for id := range m.Sources {
		ids = append(ids, id)
	}
	for id := range m.Exposures {
		ids = append(ids, id)
	}
	for id := range m.Metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resource looks up an enabled resource of any kind by unique_id.
func (m *Manifest) Resource(uniqueID string) (Resource, bool) {
	if n, ok := m.Nodes[uniqueID]; ok {
		return n, true
	}
	if s, ok := m.Sources[uniqueID]; ok {
		return s, true
	}
	if e, ok := m.Exposures[uniqueID]; ok {
		return e, true
	}
	if mt, ok := m.Metrics[uniqueID]; ok {
		return mt, true
	}
	if mc, ok := m.Macros[uniqueID]; ok {
		return mc, true
	}
	if d, ok := m.Docs[uniqueID]; ok {
		return d, true
	}
	return nil, false
}

// UnmarshalJSON decodes the nodes map through the resource_type
// discriminator; the remaining maps are homogeneous and decode
// directly.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes     map[string]json.RawMessage   `json:"nodes"`
		Sources   map[string]*SourceDefinition `json:"sources"`
		Macros    map[string]*Macro            `json:"macros"`
		Docs      map[string]*Documentation    `json:"docs"`
		Exposures map[string]*Exposure         `json:"exposures"`
		Metrics   map[string]*Metric           `json:"metrics"`
		Disabled  map[string][]json.RawMessage `json:"disabled"`
		Selectors map[string]map[string]any    `json:"selectors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Nodes = make(map[string]Resource, len(raw.Nodes))
	for id, body := range raw.Nodes {
		node, err := DecodeNode(body)
		if err != nil {
			return fmt.Errorf("decoding node %s: %w", id, err)
		}
		m.Nodes[id] = node
	}

	m.Disabled = make(map[string][]Resource, len(raw.Disabled))
	for id, bodies := range raw.Disabled {
		for _, body := range bodies {
			node, err := DecodeDisabled(body)
			if err != nil {
				return fmt.Errorf("decoding disabled resource %s: %w", id, err)
			}
			m.Disabled[id] = append(m.Disabled[id], node)
		}
	}

	m.Sources = orEmptySources(raw.Sources)
	m.Macros = orEmptyMacros(raw.Macros)
	m.Docs = orEmptyDocs(raw.Docs)
	m.Exposures = orEmptyExposures(raw.Exposures)
	m.Metrics = orEmptyMetrics(raw.Metrics)
	m.Selectors = raw.Selectors
	return nil
}

// UnknownResourceTypeError reports a resource_type the decoder does
// not recognize.
type UnknownResourceTypeError struct {
	ResourceType string
}

func (e *UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("unknown resource type %q", e.ResourceType)
}

// DecodeNode decodes one executable node by its resource_type. Tests
// are split on the presence of test_metadata: generic test instances
// carry it, hand-written singular tests do not.
func DecodeNode(body json.RawMessage) (Resource, error) {
	var head struct {
		ResourceType core.ResourceType `json:"resource_type"`
		TestMetadata json.RawMessage   `json:"test_metadata"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, err
	}

	var node Resource
	switch head.ResourceType {
	case core.ResourceModel:
		node = &ModelNode{}
	case core.ResourceAnalysis:
		node = &AnalysisNode{}
	case core.ResourceOperation:
		node = &HookNode{}
	case core.ResourceRPC, core.ResourceSQLOperation:
		node = &SQLNode{}
	case core.ResourceSeed:
		node = &SeedNode{}
	case core.ResourceSnapshot:
		node = &SnapshotNode{}
	case core.ResourceTest:
		if len(head.TestMetadata) > 0 && string(head.TestMetadata) != "null" {
			node = &GenericTestNode{}
		} else {
			node = &SingularTestNode{}
		}
	default:
		return nil, &UnknownResourceTypeError{ResourceType: string(head.ResourceType)}
	}
	if err := json.Unmarshal(body, node); err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeDisabled decodes a resource of any kind, as found in the
// disabled map.
func DecodeDisabled(body json.RawMessage) (Resource, error) {
	var head struct {
		ResourceType core.ResourceType `json:"resource_type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, err
	}
	switch head.ResourceType {
	case core.ResourceSource:
		src := &SourceDefinition{}
		return src, json.Unmarshal(body, src)
	case core.ResourceExposure:
		exp := &Exposure{}
		return exp, json.Unmarshal(body, exp)
	case core.ResourceMetric:
		metric := &Metric{}
		return metric, json.Unmarshal(body, metric)
	default:
		return DecodeNode(body)
	}
}

// SameContents dispatches change detection over the closed resource
// union. A kind change at the same unique_id is always a change. The
// sink receives the seed checksum warnings; every other comparison is
// silent.
func SameContents(next, old Resource, sink events.Sink) bool {
	switch n := next.(type) {
	case *ModelNode:
		o, _ := old.(*ModelNode)
		return n.SameContents(o)
	case *AnalysisNode:
		o, _ := old.(*AnalysisNode)
		return n.SameContents(o)
	case *HookNode:
		o, _ := old.(*HookNode)
		return n.SameContents(o)
	case *SQLNode:
		o, _ := old.(*SQLNode)
		return n.SameContents(o)
	case *SingularTestNode:
		o, _ := old.(*SingularTestNode)
		return n.SameContents(o)
	case *GenericTestNode:
		o, _ := old.(*GenericTestNode)
		return n.SameContents(o)
	case *SnapshotNode:
		o, _ := old.(*SnapshotNode)
		return n.SameContents(o)
	case *SeedNode:
		o, _ := old.(*SeedNode)
		return n.SameContents(o, sink)
	case *SourceDefinition:
		o, _ := old.(*SourceDefinition)
		if old != nil && o == nil {
			return false
		}
		return n.SameContents(o)
	case *Exposure:
		o, _ := old.(*Exposure)
		if old != nil && o == nil {
			return false
		}
		return n.SameContents(o)
	case *Metric:
		o, _ := old.(*Metric)
		if old != nil && o == nil {
			return false
		}
		return n.SameContents(o)
	case *Macro:
		o, _ := old.(*Macro)
		return n.SameContents(o)
	case *Documentation:
		o, _ := old.(*Documentation)
		return n.SameContents(o)
	default:
		return false
	}
}

func orEmptySources(m map[string]*SourceDefinition) map[string]*SourceDefinition {
	if m == nil {
		return map[string]*SourceDefinition{}
	}
	return m
}

func orEmptyMacros(m map[string]*Macro) map[string]*Macro {
	if m == nil {
		return map[string]*Macro{}
	}
	return m
}

func orEmptyDocs(m map[string]*Documentation) map[string]*Documentation {
	if m == nil {
		return map[string]*Documentation{}
	}
	return m
}

func orEmptyExposures(m map[string]*Exposure) map[string]*Exposure {
	if m == nil {
		return map[string]*Exposure{}
	}
	return m
}

func orEmptyMetrics(m map[string]*Metric) map[string]*Metric {
	if m == nil {
		return map[string]*Metric{}
	}
	return m
}
