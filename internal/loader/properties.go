package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/leapstack-labs/sqlplan/pkg/core"
	"gopkg.in/yaml.v3"
)

// propertiesFile is the parsed shape of a schema properties file.
type propertiesFile struct {
	Version   int                `yaml:"version"`
	Models    []resourcePatch    `yaml:"models"`
	Seeds     []resourcePatch    `yaml:"seeds"`
	Snapshots []resourcePatch    `yaml:"snapshots"`
	Analyses  []resourcePatch    `yaml:"analyses"`
	Macros    []macroPatch       `yaml:"macros"`
	Sources   []sourceProperties `yaml:"sources"`
	Exposures []exposureSpec     `yaml:"exposures"`
	Metrics   []metricSpec       `yaml:"metrics"`
}

type resourcePatch struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Columns     []columnSpec `yaml:"columns"`
}

type columnSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	DataType    *string        `yaml:"data_type"`
	Quote       *bool          `yaml:"quote"`
	Meta        map[string]any `yaml:"meta"`
	Tags        []string       `yaml:"tags"`
}

type macroPatch struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Arguments   []graph.MacroArgument `yaml:"arguments"`
}

type sourceProperties struct {
	Name          string                    `yaml:"name"`
	Description   string                    `yaml:"description"`
	Database      string                    `yaml:"database"`
	Schema        string                    `yaml:"schema"`
	Loader        string                    `yaml:"loader"`
	Meta          map[string]any            `yaml:"meta"`
	Tags          []string                  `yaml:"tags"`
	Quoting       core.Quoting              `yaml:"quoting"`
	LoadedAtField *string                   `yaml:"loaded_at_field"`
	Freshness     *graph.FreshnessThreshold `yaml:"freshness"`
	Tables        []sourceTableSpec         `yaml:"tables"`
}

type sourceTableSpec struct {
	Name          string                    `yaml:"name"`
	Identifier    string                    `yaml:"identifier"`
	Description   string                    `yaml:"description"`
	Meta          map[string]any            `yaml:"meta"`
	Tags          []string                  `yaml:"tags"`
	Quoting       core.Quoting              `yaml:"quoting"`
	LoadedAtField *string                   `yaml:"loaded_at_field"`
	Freshness     *graph.FreshnessThreshold `yaml:"freshness"`
	External      *graph.ExternalTable      `yaml:"external"`
	Columns       []columnSpec              `yaml:"columns"`
}

type exposureSpec struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Label       *string        `yaml:"label"`
	Maturity    *string        `yaml:"maturity"`
	URL         *string        `yaml:"url"`
	Owner       graph.Owner    `yaml:"owner"`
	Meta        map[string]any `yaml:"meta"`
	Tags        []string       `yaml:"tags"`
	DependsOn   []string       `yaml:"depends_on"`
}

type metricSpec struct {
	Name              string               `yaml:"name"`
	Label             string               `yaml:"label"`
	Description       string               `yaml:"description"`
	Model             *string              `yaml:"model"`
	CalculationMethod string               `yaml:"calculation_method"`
	Expression        string               `yaml:"expression"`
	Timestamp         *string              `yaml:"timestamp"`
	TimeGrains        []string             `yaml:"time_grains"`
	Dimensions        []string             `yaml:"dimensions"`
	Filters           []graph.MetricFilter `yaml:"filters"`
	Window            *graph.MetricTime    `yaml:"window"`
	Meta              map[string]any       `yaml:"meta"`
	Tags              []string             `yaml:"tags"`
}

// loadProperties reads every .yml file under the model, seed and
// snapshot paths: node and macro patches are applied in place, while
// sources, exposures and metrics become resources of their own.
func (l *Loader) loadProperties(manifest *graph.Manifest) error {
	dirs := append(append(append([]string(nil),
		l.cfg.Project.ModelPaths...),
		l.cfg.Project.SeedPaths...),
		l.cfg.Project.SnapshotPaths...)

	seen := map[string]bool{}
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		root := filepath.Join(l.cfg.Project.ProjectRoot, dir)
		err := walkSuffix(root, ".yml", func(path string) error {
			return l.parsePropertiesFile(manifest, root, dir, path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) parsePropertiesFile(manifest *graph.Manifest, root, dir, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	origPath := filepath.Join(dir, rel)

	var props propertiesFile
	if err := yaml.Unmarshal(contents, &props); err != nil {
		return &FrontmatterParseError{File: origPath, Message: fmt.Sprintf("invalid properties file: %v", err)}
	}

	fileID := fmt.Sprintf("%s://%s", l.cfg.Project.Name, origPath)

	patchGroups := []struct {
		patches []resourcePatch
		types   []core.ResourceType
	}{
		{props.Models, []core.ResourceType{core.ResourceModel}},
		{props.Seeds, []core.ResourceType{core.ResourceSeed}},
		{props.Snapshots, []core.ResourceType{core.ResourceSnapshot}},
		{props.Analyses, []core.ResourceType{core.ResourceAnalysis}},
	}
	for _, group := range patchGroups {
		for _, patch := range group.patches {
			l.applyNodePatch(manifest, patch, group.types, fileID)
		}
	}

	for _, patch := range props.Macros {
		id := fmt.Sprintf("macro.%s.%s", l.cfg.Project.Name, patch.Name)
		if macro, ok := manifest.Macros[id]; ok {
			macro.Patch(graph.MacroPatch{
				Name:        patch.Name,
				Description: patch.Description,
				Arguments:   patch.Arguments,
				FileID:      fileID,
			})
		}
	}

	for _, src := range props.Sources {
		if err := l.addSourceTables(manifest, src, rel, origPath); err != nil {
			return err
		}
	}
	for _, spec := range props.Exposures {
		if err := l.addExposure(manifest, spec, rel, origPath); err != nil {
			return err
		}
	}
	for _, spec := range props.Metrics {
		if err := l.addMetric(manifest, spec, rel, origPath); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) applyNodePatch(manifest *graph.Manifest, patch resourcePatch, types []core.ResourceType, fileID string) {
	columns := make(map[string]graph.ColumnInfo, len(patch.Columns))
	for _, col := range patch.Columns {
		columns[col.Name] = graph.ColumnInfo{
			Name:        col.Name,
			Description: col.Description,
			DataType:    col.DataType,
			Quote:       col.Quote,
			Meta:        col.Meta,
			Tags:        col.Tags,
		}
	}
	nodePatch := graph.NodePatch{
		Name:        patch.Name,
		Description: patch.Description,
		Columns:     columns,
		FileID:      fileID,
	}

	for _, node := range manifest.Nodes {
		ident := node.Ident()
		if ident.PackageName != l.cfg.Project.Name || ident.Name != patch.Name {
			continue
		}
		for _, t := range types {
			if ident.ResourceType != t {
				continue
			}
			switch n := node.(type) {
			case *graph.ModelNode:
				n.ParsedNodeCommon.Patch(nodePatch)
			case *graph.SeedNode:
				n.ParsedNodeCommon.Patch(nodePatch)
			case *graph.SnapshotNode:
				n.ParsedNodeCommon.Patch(nodePatch)
			case *graph.AnalysisNode:
				n.ParsedNodeCommon.Patch(nodePatch)
			}
		}
	}
}

func (l *Loader) addSourceTables(manifest *graph.Manifest, src sourceProperties, rel, origPath string) error {
	schema := src.Schema
	if schema == "" {
		schema = src.Name
	}
	sourceUnrendered := resolveTree(l.cfg.Project.Sources, []string{l.cfg.Project.Name, src.Name})

	for _, table := range src.Tables {
		identifier := table.Identifier
		if identifier == "" {
			identifier = table.Name
		}
		quoting := src.Quoting
		if !table.Quoting.Equal(core.Quoting{}) {
			quoting = table.Quoting
		}
		loadedAt := src.LoadedAtField
		if table.LoadedAtField != nil {
			loadedAt = table.LoadedAtField
		}
		freshness := src.Freshness
		if table.Freshness != nil {
			freshness = table.Freshness
		}

		columns := make(map[string]graph.ColumnInfo, len(table.Columns))
		for _, col := range table.Columns {
			columns[col.Name] = graph.ColumnInfo{
				Name:        col.Name,
				Description: col.Description,
				DataType:    col.DataType,
				Quote:       col.Quote,
				Meta:        col.Meta,
				Tags:        col.Tags,
			}
		}

		cfg := graph.SourceConfig{Enabled: true}
		if err := decodeConfig(sourceUnrendered, &cfg); err != nil {
			return err
		}

		definition := &graph.SourceDefinition{
			NodeIdentity: graph.NodeIdentity{
				Name:             table.Name,
				ResourceType:     core.ResourceSource,
				PackageName:      l.cfg.Project.Name,
				Path:             rel,
				OriginalFilePath: origPath,
				UniqueID:         fmt.Sprintf("source.%s.%s.%s", l.cfg.Project.Name, src.Name, table.Name),
			},
			RelationMeta:      graph.RelationMeta{Database: src.Database, Schema: schema},
			FQN:               []string{l.cfg.Project.Name, src.Name, table.Name},
			SourceName:        src.Name,
			SourceDescription: src.Description,
			Loader:            src.Loader,
			Identifier:        identifier,
			Quoting:           quoting,
			LoadedAtField:     loadedAt,
			Freshness:         freshness,
			External:          table.External,
			Description:       table.Description,
			Columns:           columns,
			Meta:              table.Meta,
			SourceMeta:        src.Meta,
			Tags:              append(append([]string(nil), src.Tags...), table.Tags...),
			Config:            cfg,
			UnrenderedConfig:  sourceUnrendered,
			CreatedAt:         time.Now().UTC(),
		}

		if !cfg.Enabled {
			manifest.AddDisabled(definition)
			continue
		}
		if err := manifest.AddSource(definition); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) addExposure(manifest *graph.Manifest, spec exposureSpec, rel, origPath string) error {
	unrendered := resolveTree(l.cfg.Project.Exposures, []string{l.cfg.Project.Name, spec.Name})
	cfg := graph.ExposureConfig{Enabled: true}
	if err := decodeConfig(unrendered, &cfg); err != nil {
		return err
	}

	var refs, sources, metrics [][]string
	for _, dep := range spec.DependsOn {
		refs = append(refs, extractRefs(dep)...)
		sources = append(sources, extractSources(dep)...)
		metrics = append(metrics, extractMetrics(dep)...)
	}

	exposure := &graph.Exposure{
		NodeIdentity: graph.NodeIdentity{
			Name:             spec.Name,
			ResourceType:     core.ResourceExposure,
			PackageName:      l.cfg.Project.Name,
			Path:             rel,
			OriginalFilePath: origPath,
			UniqueID:         fmt.Sprintf("exposure.%s.%s", l.cfg.Project.Name, spec.Name),
		},
		FQN:              []string{l.cfg.Project.Name, spec.Name},
		Type:             graph.ExposureType(spec.Type),
		Owner:            spec.Owner,
		Description:      spec.Description,
		Label:            spec.Label,
		Maturity:         spec.Maturity,
		URL:              spec.URL,
		Meta:             spec.Meta,
		Tags:             spec.Tags,
		Config:           cfg,
		UnrenderedConfig: unrendered,
		Refs:             refs,
		Sources:          sources,
		Metrics:          metrics,
		CreatedAt:        time.Now().UTC(),
	}

	if !cfg.Enabled {
		manifest.AddDisabled(exposure)
		return nil
	}
	return manifest.AddExposure(exposure)
}

func (l *Loader) addMetric(manifest *graph.Manifest, spec metricSpec, rel, origPath string) error {
	unrendered := resolveTree(l.cfg.Project.Metrics, []string{l.cfg.Project.Name, spec.Name})
	cfg := graph.MetricConfig{Enabled: true}
	if err := decodeConfig(unrendered, &cfg); err != nil {
		return err
	}

	var refs [][]string
	if spec.Model != nil {
		refs = extractRefs(*spec.Model)
	}

	calculationMethod := spec.CalculationMethod
	if calculationMethod == "" {
		calculationMethod = "count"
	}

	metric := &graph.Metric{
		NodeIdentity: graph.NodeIdentity{
			Name:             spec.Name,
			ResourceType:     core.ResourceMetric,
			PackageName:      l.cfg.Project.Name,
			Path:             rel,
			OriginalFilePath: origPath,
			UniqueID:         fmt.Sprintf("metric.%s.%s", l.cfg.Project.Name, spec.Name),
		},
		FQN:               []string{l.cfg.Project.Name, spec.Name},
		Description:       spec.Description,
		Label:             spec.Label,
		CalculationMethod: calculationMethod,
		Expression:        spec.Expression,
		Filters:           spec.Filters,
		TimeGrains:        spec.TimeGrains,
		Dimensions:        spec.Dimensions,
		Timestamp:         spec.Timestamp,
		Window:            spec.Window,
		Model:             spec.Model,
		Meta:              spec.Meta,
		Tags:              spec.Tags,
		Config:            cfg,
		UnrenderedConfig:  unrendered,
		Refs:              refs,
		CreatedAt:         time.Now().UTC(),
	}

	if !cfg.Enabled {
		manifest.AddDisabled(metric)
		return nil
	}
	return manifest.AddMetric(metric)
}
