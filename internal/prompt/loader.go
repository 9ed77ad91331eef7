// File path: internal/prompt/loader.go
package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bidsmith/rfpcopilot/internal/common"
)

//go:embed prompts/*.yaml
var defaultPrompts embed.FS

// Template is one named prompt pair. Both fields may contain {{variable}}
// placeholders.
type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompt is a template with its placeholders filled.
type Prompt struct {
	System string
	User   string
}

// Loader resolves prompt templates by ID. Built-in templates ship with the
// binary; a directory of YAML files can override or extend them.
type Loader struct {
	templates map[string]Template
}

// NewLoader builds a loader from the embedded templates, then overlays any
// *.yaml files found in dir when dir is non-empty. Files that fail to parse
// are logged and skipped.
func NewLoader(dir string) (*Loader, error) {
	loader := &Loader{templates: make(map[string]Template)}
	if err := loader.loadFS(defaultPrompts, "prompts"); err != nil {
		return nil, fmt.Errorf("prompt loader: embedded templates: %w", err)
	}
	if dir != "" {
		loader.loadDir(dir)
	}
	return loader, nil
}

func (l *Loader) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.Join(root, entry.Name()))
		if err != nil {
			return err
		}
		if err := l.merge(data); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (l *Loader) loadDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		common.Logger().Warn("prompt loader: override directory unreadable", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			common.Logger().Warn("prompt loader: read failed", "path", path, "error", err)
			continue
		}
		if err := l.merge(data); err != nil {
			common.Logger().Warn("prompt loader: parse failed", "path", path, "error", err)
		}
	}
}

func (l *Loader) merge(data []byte) error {
	var parsed map[string]Template
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}
	for id, tmpl := range parsed {
		l.templates[id] = tmpl
	}
	return nil
}

// IDs returns the known template IDs sorted, mainly for diagnostics.
func (l *Loader) IDs() []string {
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the filled prompt for id. Placeholders without a matching
// variable are left intact so a missing value is visible downstream.
func (l *Loader) Get(id string, vars map[string]string) (Prompt, error) {
	tmpl, ok := l.templates[id]
	if !ok {
		return Prompt{}, fmt.Errorf("prompt loader: no template %q (known: %s)", id, strings.Join(l.IDs(), ", "))
	}
	return Prompt{
		System: Fill(tmpl.System, vars),
		User:   Fill(tmpl.User, vars),
	}, nil
}

// Fill substitutes {{name}} placeholders in template with the given values.
func Fill(template string, vars map[string]string) string {
	filled := template
	for name, value := range vars {
		filled = strings.ReplaceAll(filled, "{{"+name+"}}", value)
	}
	return filled
}
