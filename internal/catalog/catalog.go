// Package catalog loads templates and workflow documents from the
// data-root's templates/ and workflows/ directories.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/daedalos/daedalos/internal/models"
	"gopkg.in/yaml.v3"
)

// Catalog resolves named templates and workflow documents from YAML files
// on disk.
type Catalog struct {
	templatesDir string
	workflowsDir string
}

// New returns a Catalog rooted at the given templates/workflows
// directories.
func New(templatesDir, workflowsDir string) *Catalog {
	return &Catalog{templatesDir: templatesDir, workflowsDir: workflowsDir}
}

func (c *Catalog) templatePath(name string) string {
	return filepath.Join(c.templatesDir, name+".yaml")
}

func (c *Catalog) workflowPath(name string) string {
	return filepath.Join(c.workflowsDir, name+".yaml")
}

// Template loads and parses the named template document, returning
// models.ErrUnknownTemplate if it doesn't exist.
func (c *Catalog) Template(name string) (models.Template, error) {
	data, err := os.ReadFile(c.templatePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return models.Template{}, models.ErrUnknownTemplate(name)
		}
		return models.Template{}, fmt.Errorf("read template %s: %w", name, err)
	}

	var tmpl models.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return models.Template{}, fmt.Errorf("parse template %s: %w", name, err)
	}
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	if tmpl.OnComplete == "" {
		tmpl.OnComplete = "signal"
	}
	return tmpl, nil
}

// Templates lists every template name available, sorted.
func (c *Catalog) Templates() []string {
	return listYAMLNames(c.templatesDir)
}

// Workflow loads and parses the named workflow document, returning
// models.ErrUnknownWorkflow if it doesn't exist.
func (c *Catalog) Workflow(name string) (models.WorkflowDoc, error) {
	data, err := os.ReadFile(c.workflowPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return models.WorkflowDoc{}, models.ErrUnknownWorkflow(name)
		}
		return models.WorkflowDoc{}, fmt.Errorf("read workflow %s: %w", name, err)
	}

	var doc models.WorkflowDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.WorkflowDoc{}, fmt.Errorf("parse workflow %s: %w", name, err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	if len(doc.Stages) == 0 {
		return models.WorkflowDoc{}, fmt.Errorf("workflow %s: no stages defined", name)
	}
	return doc, nil
}

// Workflows lists every workflow document name available, sorted.
func (c *Catalog) Workflows() []string {
	return listYAMLNames(c.workflowsDir)
}

func listYAMLNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(ent.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
