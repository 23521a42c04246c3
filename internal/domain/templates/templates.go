// Package templates provides starter projects that replace the current tree.
//
// Templates are YAML documents embedded in the binary. Each describes a
// nested structure of files and folders that Build turns into a fresh
// project tree.
package templates

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
)

//go:embed data/*.yaml
var data embed.FS

// Item is one entry of a template structure
type Item struct {
	Type     string `yaml:"type" json:"type"`
	Name     string `yaml:"name" json:"name"`
	Content  string `yaml:"content,omitempty" json:"content,omitempty"`
	Children []Item `yaml:"children,omitempty" json:"children,omitempty"`
}

// Template is a named starter project
type Template struct {
	Name        string `yaml:"name" json:"name"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Structure   []Item `yaml:"structure" json:"structure"`
}

// Files counts the files the template creates
func (t *Template) Files() int {
	return countFiles(t.Structure)
}

func countFiles(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Type == "folder" {
			n += countFiles(it.Children)
			continue
		}
		n++
	}
	return n
}

// Registry holds the parsed templates by name
type Registry struct {
	byName map[string]*Template
}

// Load parses the embedded templates
func Load() (*Registry, error) {
	entries, err := data.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	r := &Registry{byName: make(map[string]*Template, len(entries))}
	for _, e := range entries {
		raw, err := data.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		tmpl, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		r.byName[tmpl.Name] = tmpl
	}
	return r, nil
}

// Parse decodes a single YAML template
func Parse(raw []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(raw, &tmpl); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if tmpl.Name == "" {
		return nil, fmt.Errorf("parse template: missing name")
	}
	return &tmpl, nil
}

// Get returns the template called name
func (r *Registry) Get(name string) (*Template, error) {
	tmpl, ok := r.byName[name]
	if !ok {
		return nil, &project.Error{Op: project.OpTemplate, ID: name, Err: project.ErrUnknownTemplate}
	}
	return tmpl, nil
}

// List returns every template sorted by name
func (r *Registry) List() []*Template {
	out := make([]*Template, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build creates a new tree from the template. first is the id of the first
// file that is not a readme, or "" if there is none; callers open it.
func (t *Template) Build() (*project.Tree, string, error) {
	tree := project.NewTree()
	var first string
	if err := build(tree, tree.Root().ID(), t.Structure, &first); err != nil {
		return nil, "", err
	}
	return tree, first, nil
}

func build(tree *project.Tree, parentID string, items []Item, first *string) error {
	for _, it := range items {
		if it.Type == "folder" {
			folder, err := tree.CreateFolder(parentID, it.Name)
			if err != nil {
				return err
			}
			if err := build(tree, folder.ID(), it.Children, first); err != nil {
				return err
			}
			continue
		}

		file, err := tree.CreateFile(parentID, it.Name, it.Content)
		if err != nil {
			return err
		}
		if *first == "" && !strings.Contains(strings.ToLower(it.Name), "readme") {
			*first = file.ID()
		}
	}
	return nil
}
