package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// messageTemplate is one entry of the YAML catalogue
type messageTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type compiledTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Catalog holds the parsed message templates by name
type Catalog struct {
	templates map[string]compiledTemplate
}

// LoadCatalog reads templates from path, or the embedded defaults when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read templates: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML template catalogue
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]messageTemplate
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	c := &Catalog{templates: make(map[string]compiledTemplate, len(raw))}
	for name, tmpl := range raw {
		subject, err := template.New(name + ".subject").Option("missingkey=error").Parse(tmpl.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to parse subject of %s: %w", name, err)
		}
		body, err := template.New(name + ".body").Option("missingkey=error").Parse(tmpl.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse body of %s: %w", name, err)
		}
		c.templates[name] = compiledTemplate{subject: subject, body: body}
	}
	return c, nil
}

// Render produces the subject and plain-text body of the named template
func (c *Catalog) Render(name string, vars map[string]string) (subject, body string, err error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}

	var sb, bb bytes.Buffer
	if err := tmpl.subject.Execute(&sb, vars); err != nil {
		return "", "", fmt.Errorf("failed to render subject of %s: %w", name, err)
	}
	if err := tmpl.body.Execute(&bb, vars); err != nil {
		return "", "", fmt.Errorf("failed to render body of %s: %w", name, err)
	}
	return sb.String(), bb.String(), nil
}
