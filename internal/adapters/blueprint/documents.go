package blueprint

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	perr "gwdata/internal/platform/errors"
)

// eventSchema pins the minimum shape an event blueprint must satisfy
// before its values are trusted
const eventSchema = `{
  "type": "object",
  "required": ["kind", "name"],
  "properties": {
    "kind": {"const": "event"},
    "name": {"type": "string", "minLength": 1},
    "event time": {"type": "number"},
    "interferometers": {"type": "array", "items": {"type": "string"}}
  }
}`

var eventValidator = jsonschema.MustCompileString("event.json", eventSchema)

var catalogs = []string{"gwtc-2-1", "gwtc-3", "ias"}

// Event is a minimal view of an event blueprint
type Event struct {
	Name    string
	Catalog string
	File    string
	Time    float64
	IFOs    []string
}

// Analysis is a minimal view of an analysis template
type Analysis struct {
	Name     string
	Type     string
	Pipeline string
	File     string
}

// Bundle groups analysis templates under one name
type Bundle struct {
	Name        string
	Description string
	Comment     string
	Analyses    []string
	File        string
}

// Default is a named default configuration file
type Default struct {
	Name string
	Kind string
	File string
}

type eventDoc struct {
	Kind            string   `yaml:"kind"`
	Name            string   `yaml:"name"`
	EventTime       float64  `yaml:"event time"`
	Interferometers []string `yaml:"interferometers"`
}

type analysisDoc struct {
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	Pipeline string `yaml:"pipeline"`
}

type bundleDoc struct {
	Kind        string   `yaml:"kind"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Comment     string   `yaml:"comment"`
	Analyses    []string `yaml:"analyses"`
}

// ListEvents returns the event blueprints, optionally filtered to one
// catalog, sorted by event time
func (r *Repository) ListEvents(ctx context.Context, catalog string) ([]Event, error) {
	repo, err := r.EnsureAvailable(ctx, false)
	if err != nil {
		return nil, err
	}

	search := catalogs
	if catalog != "" {
		search = []string{catalog}
	}

	var events []Event
	for _, cat := range search {
		dir := filepath.Join(repo, "events", cat)
		files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
		if err != nil || files == nil {
			continue
		}
		for _, f := range files {
			// bulk catalog files carry many events; skip them here
			if strings.Contains(filepath.Base(f), "events.yaml") {
				continue
			}
			var doc eventDoc
			if err := decodeYAMLFile(f, &doc); err != nil {
				continue
			}
			if doc.Kind != "event" {
				continue
			}
			if err := validateEventFile(f); err != nil {
				continue
			}
			name := doc.Name
			if name == "" {
				name = stem(f)
			}
			events = append(events, Event{
				Name:    name,
				Catalog: cat,
				File:    f,
				Time:    doc.EventTime,
				IFOs:    doc.Interferometers,
			})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events, nil
}

// GetEvent finds one event blueprint by name
func (r *Repository) GetEvent(ctx context.Context, name string) (Event, error) {
	events, err := r.ListEvents(ctx, "")
	if err != nil {
		return Event{}, err
	}
	for _, e := range events {
		if e.Name == name {
			return e, nil
		}
	}
	return Event{}, perr.NotFoundf("no event blueprint named %q", name)
}

// ListAnalyses returns analysis templates, from both the flat analyses
// directory and its per-pipeline subdirectories, optionally filtered by type
func (r *Repository) ListAnalyses(ctx context.Context, analysisType string) ([]Analysis, error) {
	repo, err := r.EnsureAvailable(ctx, false)
	if err != nil {
		return nil, err
	}
	root := filepath.Join(repo, "analyses")

	var out []Analysis

	flat, _ := filepath.Glob(filepath.Join(root, "*.yaml"))
	for _, f := range flat {
		for _, doc := range decodeAnalysisDocs(f) {
			if doc.Kind != "analysis" {
				continue
			}
			name := doc.Name
			if name == "" {
				name = stem(f)
			}
			out = append(out, Analysis{
				Name:     name,
				Type:     inferType(doc.Pipeline),
				Pipeline: doc.Pipeline,
				File:     f,
			})
		}
	}

	subdirs, _ := os.ReadDir(root)
	for _, sd := range subdirs {
		if !sd.IsDir() || sd.Name() == "bundles" {
			continue
		}
		nested, _ := filepath.Glob(filepath.Join(root, sd.Name(), "*.yaml"))
		for _, f := range nested {
			var doc analysisDoc
			if err := decodeYAMLFile(f, &doc); err != nil || doc.Kind != "analysis" {
				continue
			}
			name := doc.Name
			if name == "" {
				name = stem(f)
			}
			out = append(out, Analysis{Name: name, Type: sd.Name(), Pipeline: doc.Pipeline, File: f})
		}
	}

	if analysisType != "" {
		filtered := out[:0]
		for _, a := range out {
			if strings.Contains(strings.ToLower(a.Type), strings.ToLower(analysisType)) {
				filtered = append(filtered, a)
			}
		}
		out = filtered
	}
	return out, nil
}

// GetAnalysis finds one analysis template by name or file stem
func (r *Repository) GetAnalysis(ctx context.Context, name string) (Analysis, error) {
	analyses, err := r.ListAnalyses(ctx, "")
	if err != nil {
		return Analysis{}, err
	}
	for _, a := range analyses {
		if a.Name == name || stem(a.File) == name {
			return a, nil
		}
	}
	return Analysis{}, perr.NotFoundf("no analysis template named %q", name)
}

// ListBundles returns the analysis bundles
func (r *Repository) ListBundles(ctx context.Context) ([]Bundle, error) {
	repo, err := r.EnsureAvailable(ctx, false)
	if err != nil {
		return nil, err
	}
	files, _ := filepath.Glob(filepath.Join(repo, "analyses", "bundles", "*.yaml"))

	var out []Bundle
	for _, f := range files {
		var doc bundleDoc
		if err := decodeYAMLFile(f, &doc); err != nil || doc.Kind != "analysisbundle" {
			continue
		}
		name := doc.Name
		if name == "" {
			name = stem(f)
		}
		out = append(out, Bundle{
			Name:        name,
			Description: doc.Description,
			Comment:     doc.Comment,
			Analyses:    doc.Analyses,
			File:        f,
		})
	}
	return out, nil
}

// GetBundle finds one bundle by name or file stem
func (r *Repository) GetBundle(ctx context.Context, name string) (Bundle, error) {
	bundles, err := r.ListBundles(ctx)
	if err != nil {
		return Bundle{}, err
	}
	for _, b := range bundles {
		if b.Name == name || stem(b.File) == name {
			return b, nil
		}
	}
	return Bundle{}, perr.NotFoundf("no bundle named %q", name)
}

// ListDefaults returns the default configuration files
func (r *Repository) ListDefaults(ctx context.Context) ([]Default, error) {
	repo, err := r.EnsureAvailable(ctx, false)
	if err != nil {
		return nil, err
	}
	files, _ := filepath.Glob(filepath.Join(repo, "defaults", "*.yaml"))

	var out []Default
	for _, f := range files {
		var doc struct {
			Kind string `yaml:"kind"`
		}
		if err := decodeYAMLFile(f, &doc); err != nil {
			continue
		}
		kind := doc.Kind
		if kind == "" {
			kind = "configuration"
		}
		out = append(out, Default{Name: stem(f), Kind: kind, File: f})
	}
	return out, nil
}

// GetDefault returns the path of one default configuration by name
func (r *Repository) GetDefault(ctx context.Context, name string) (string, error) {
	defaults, err := r.ListDefaults(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range defaults {
		if d.Name == name {
			return d.File, nil
		}
	}
	return "", perr.NotFoundf("no default configuration named %q", name)
}

func inferType(pipeline string) string {
	p := strings.ToLower(pipeline)
	switch {
	case strings.Contains(p, "bilby"):
		return "bilby"
	case strings.Contains(p, "bayeswave"):
		return "bayeswave"
	case strings.Contains(p, "rift"):
		return "rift"
	default:
		return "other"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decodeYAMLFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, v)
}

// decodeAnalysisDocs handles both a single document and a YAML list of
// analyses in one file
func decodeAnalysisDocs(path string) []analysisDoc {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var list []analysisDoc
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one analysisDoc
	if err := yaml.Unmarshal(raw, &one); err == nil {
		return []analysisDoc{one}
	}
	return nil
}

// validateEventFile checks an event blueprint against the embedded schema
func validateEventFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := eventValidator.Validate(doc); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeValidation, "event blueprint %s", filepath.Base(path))
	}
	return nil
}
