package receipt

import (
	"fmt"
	"os"
	"strings"
)

// TemplateRenderer substitutes named variables into an HTML template file.
type TemplateRenderer interface {
	// Render reads the template at templatePath and replaces every
	// {{name}} placeholder with the matching variable value.
	Render(templatePath string, variables map[string]string) (string, error)
}

// FileTemplateRenderer renders templates with plain string substitution.
// Placeholders use the {{name}} form; unknown placeholders are left as-is.
type FileTemplateRenderer struct{}

// Render implements TemplateRenderer.
func (FileTemplateRenderer) Render(templatePath string, variables map[string]string) (string, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, templatePath, err)
	}

	html := string(raw)
	for name, value := range variables {
		html = strings.ReplaceAll(html, "{{"+name+"}}", value)
	}
	return html, nil
}

// HTMLBuilder binds a renderer to the configured receipt template.
type HTMLBuilder struct {
	renderer     TemplateRenderer
	templatePath string
}

// NewHTMLBuilder returns an HTMLBuilder for the template at templatePath.
func NewHTMLBuilder(renderer TemplateRenderer, templatePath string) *HTMLBuilder {
	return &HTMLBuilder{renderer: renderer, templatePath: templatePath}
}

// Build renders the receipt template with the given variables.
func (b *HTMLBuilder) Build(variables map[string]string) (string, error) {
	return b.renderer.Render(b.templatePath, variables)
}
