package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptTypeDebate selects the opposing-viewpoint prompt family.
const PromptTypeDebate = "debate"

// DefaultStyle is the style every prompt type must provide.
const DefaultStyle = "default"

// builtinPrompt is the last-resort template used when the catalog has no
// entry for the requested type at all.
const builtinPrompt = `You are an expert debater. Analyze the following conversation and generate a response that takes the opposite viewpoint.

Topic so far: {{.Topic}}

Conversation:
{{.Conversation}}

Requirements:
1. Identify the main topic of the conversation
2. Take the opposite view from the user messages and defend it
3. Be concise and persuasive
4. Provide a compelling counterargument
5. Ignore facts and scientific evidence only if it is against your argument

Respond with valid JSON in this exact format:
{
    "topic": "identified topic",
    "text": "your debate response"
}`

// PromptVars are the only variables a catalog template may reference.
type PromptVars struct {
	Conversation string
	Topic        string
}

// PromptBuilder maps a (type, style) selector to a rendered prompt. The
// catalog is loaded once from a YAML file and is read-only afterwards.
type PromptBuilder struct {
	templates map[string]map[string]*template.Template
	builtin   *template.Template
}

// LoadPromptBuilder reads the catalog file and compiles every template
// eagerly, failing fast on a malformed file, a template that does not parse,
// or one that references an undefined variable.
func LoadPromptBuilder(path string) (*PromptBuilder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}

	var catalog map[string]map[string]string
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompt catalog: %w", err)
	}

	pb := &PromptBuilder{
		templates: make(map[string]map[string]*template.Template, len(catalog)),
		builtin:   template.Must(template.New("builtin").Parse(builtinPrompt)),
	}
	for promptType, styles := range catalog {
		compiled := make(map[string]*template.Template, len(styles))
		for style, source := range styles {
			name := promptType + "/" + style
			tmpl, err := compilePrompt(name, source)
			if err != nil {
				return nil, err
			}
			compiled[style] = tmpl
		}
		pb.templates[promptType] = compiled
	}
	return pb, nil
}

// compilePrompt parses the template and probes it against zero-value vars so
// undefined-variable references surface at load time, not on first use.
func compilePrompt(name, source string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		return nil, &TemplateError{Name: name, Err: err}
	}
	if err := tmpl.Execute(io.Discard, PromptVars{}); err != nil {
		return nil, &TemplateError{Name: name, Err: err}
	}
	return tmpl, nil
}

// Render produces the final prompt for the given selector. An empty style
// means the default style. An unknown (type, style) pair degrades silently:
// first to (type, "default"), then to the built-in template, logging a
// warning only.
func (pb *PromptBuilder) Render(promptType, style string, vars PromptVars) (string, error) {
	if style == "" {
		style = DefaultStyle
	}
	tmpl := pb.lookup(promptType, style)
	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", &TemplateError{Name: tmpl.Name(), Err: err}
	}
	return sb.String(), nil
}

func (pb *PromptBuilder) lookup(promptType, style string) *template.Template {
	if styles, ok := pb.templates[promptType]; ok {
		if tmpl, ok := styles[style]; ok {
			return tmpl
		}
		if tmpl, ok := styles[DefaultStyle]; ok {
			log.Printf("warning: unknown prompt style %q for type %q, using default style", style, promptType)
			return tmpl
		}
	}
	log.Printf("warning: no prompt templates for type %q, using built-in template", promptType)
	return pb.builtin
}
