package graph

import "time"

// MacroArgument documents one parameter of a macro.
type MacroArgument struct {
	Name        string  `json:"name" yaml:"name"`
	Type        *string `json:"type,omitempty" yaml:"type"`
	Description string  `json:"description,omitempty" yaml:"description"`
}

// Macro is a reusable SQL template. Macros sit outside the node DAG
// and are tracked through MacroDependsOn edges on nodes.
type Macro struct {
	NodeIdentity
	MacroSQL       string          `json:"macro_sql"`
	DependsOn      MacroDependsOn  `json:"depends_on"`
	Description    string          `json:"description,omitempty"`
	Meta           map[string]any  `json:"meta,omitempty"`
	Docs           Docs            `json:"docs"`
	PatchPath      *string         `json:"patch_path,omitempty"`
	Arguments      []MacroArgument `json:"arguments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	SupportedLangs []string        `json:"supported_languages,omitempty"`
}

// MacroPatch is the slice of a properties file applying to one macro.
type MacroPatch struct {
	Name        string
	Description string
	Arguments   []MacroArgument
	FileID      string
}

// Patch applies documentation from a properties file.
func (m *Macro) Patch(patch MacroPatch) {
	m.PatchPath = &patch.FileID
	m.CreatedAt = nowTimestamp()
	m.Description = patch.Description
	m.Arguments = patch.Arguments
}

// SameContents is plain template-text equality: macros have no config
// and no materialization, so only the SQL matters.
func (m *Macro) SameContents(old *Macro) bool {
	if old == nil {
		return false
	}
	return m.MacroSQL == old.MacroSQL
}

// Documentation is a named docs block defined in a markdown file and
// referenced from descriptions.
type Documentation struct {
	NodeIdentity
	BlockContents string `json:"block_contents"`
}

// SameContents is block-text equality.
func (d *Documentation) SameContents(old *Documentation) bool {
	if old == nil {
		return false
	}
	return d.BlockContents == old.BlockContents
}
