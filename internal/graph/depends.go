package graph

// MacroDependsOn records the macros a resource depends on, as
// unique_ids with add-if-absent semantics: no duplicates, first
// insertion order preserved. The linear membership scan is fine at
// manifest scale.
type MacroDependsOn struct {
	Macros []string `json:"macros"`
}

// AddMacro appends the id if it is not already present.
func (d *MacroDependsOn) AddMacro(uniqueID string) {
	for _, existing := range d.Macros {
		if existing == uniqueID {
			return
		}
	}
	d.Macros = append(d.Macros, uniqueID)
}

// DependsOn extends MacroDependsOn with node dependencies, used by
// every graph resource except seeds and macros.
type DependsOn struct {
	MacroDependsOn
	Nodes []string `json:"nodes"`
}

// AddNode appends the id if it is not already present.
func (d *DependsOn) AddNode(uniqueID string) {
	for _, existing := range d.Nodes {
		if existing == uniqueID {
			return
		}
	}
	d.Nodes = append(d.Nodes, uniqueID)
}

// sameNodeSet compares two dependency lists as sets.
func sameNodeSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
