package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
	"jordanella.com/screenbot-go/internal/cv"
)

// Registry holds the named templates loaded from a YAML manifest. Templates
// are validated and their images decoded at load time so nothing fails
// mid-run; after LoadFromFile the registry is read-only.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]cv.Template
	order     []string
	basePath  string
	cache     *ImageCache
}

// TemplateDefinition represents a template in the YAML manifest. Threshold is
// a pointer so an omitted key (default applies) is distinguishable from an
// explicit value.
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold *float64   `yaml:"threshold,omitempty"`
	Region    *RegionDef `yaml:"region,omitempty"`
}

// RegionDef represents a search region in the YAML manifest
type RegionDef struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

// ManifestFile represents the structure of a template manifest
type ManifestFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// DefaultThreshold applies when a manifest entry omits the threshold
const DefaultThreshold = 0.8

// NewRegistry creates a registry. basePath is the root directory where the
// template image files live.
func NewRegistry(basePath string) *Registry {
	return &Registry{
		templates: make(map[string]cv.Template),
		basePath:  basePath,
		cache:     NewImageCache(),
	}
}

// LoadFromFile loads and validates templates from a YAML manifest. Any
// malformed entry fails the whole load.
func (r *Registry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template manifest %s: %w", filePath, err)
	}

	var manifest ManifestFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to unmarshal template manifest: %w", err)
	}

	if len(manifest.Templates) == 0 {
		return fmt.Errorf("template manifest %s declares no templates", filePath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range manifest.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if _, exists := r.templates[def.Name]; exists {
			return fmt.Errorf("template %d (%s): duplicate template name", i+1, def.Name)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}
		threshold := DefaultThreshold
		if def.Threshold != nil {
			threshold = *def.Threshold
			if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("template %d (%s): threshold %v outside (0,1]", i+1, def.Name, threshold)
			}
		}

		template := cv.Template{
			Name:      def.Name,
			Path:      filepath.Join(r.basePath, def.Path),
			Threshold: threshold,
		}

		if def.Region != nil {
			region := cv.NewRegion(def.Region.X1, def.Region.Y1, def.Region.X2, def.Region.Y2)
			if region.Empty() {
				return fmt.Errorf("template %d (%s): empty search region", i+1, def.Name)
			}
			template.Region = &region
		}

		img, err := r.cache.Load(template.Path)
		if err != nil {
			return fmt.Errorf("template %d (%s): %w", i+1, def.Name, err)
		}
		template.Image = img

		r.templates[def.Name] = template
		r.order = append(r.order, def.Name)
	}

	return nil
}

// LoadFromDirectory loads every .yaml/.yml manifest in a directory, in
// lexical order.
func (r *Registry) LoadFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", dirPath, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFromFile(filepath.Join(dirPath, entry.Name())); err != nil {
			return err
		}
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("no template manifests found in %s", dirPath)
	}
	return nil
}

// Get returns a template by name
func (r *Registry) Get(name string) (cv.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	template, ok := r.templates[name]
	return template, ok
}

// All returns every template in manifest order
func (r *Registry) All() []cv.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]cv.Template, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.templates[name])
	}
	return all
}

// Names returns the template names in manifest order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered templates
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}
