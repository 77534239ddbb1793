// Package prompt holds the versioned prompt templates for each analysis stage.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Stage names used as catalogue keys.
const (
	StagePurpose       = "purpose"
	StageFailureReason = "failure_reason"
	StageActionPlan    = "action_plan"
)

//go:embed prompts.yaml
var builtinCatalog []byte

type catalogFile struct {
	Version string                  `yaml:"version"`
	Stages  map[string]templateFile `yaml:"stages"`
}

type templateFile struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Template is the compiled system and user prompt pair for one stage.
type Template struct {
	Stage  string
	System string
	user   *template.Template
}

// Catalog is a versioned set of stage templates.
type Catalog struct {
	Version   string
	templates map[string]*Template
}

// Default returns the catalogue compiled into the binary.
// It panics if the embedded file is invalid, which tests guard against.
func Default() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("prompt: builtin catalog: %v", err))
	}
	return c
}

// Parse compiles a catalogue from YAML. Every stage must define both a
// system and a user prompt.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("catalog version is required")
	}

	c := &Catalog{
		Version:   file.Version,
		templates: make(map[string]*Template, len(file.Stages)),
	}
	for _, stage := range []string{StagePurpose, StageFailureReason, StageActionPlan} {
		tf, ok := file.Stages[stage]
		if !ok {
			return nil, fmt.Errorf("catalog is missing stage %q", stage)
		}
		if tf.System == "" || tf.User == "" {
			return nil, fmt.Errorf("stage %q needs both system and user prompts", stage)
		}
		user, err := template.New(stage).
			Option("missingkey=error").
			Funcs(template.FuncMap{"json": toJSON}).
			Parse(tf.User)
		if err != nil {
			return nil, fmt.Errorf("compile %s user prompt: %w", stage, err)
		}
		c.templates[stage] = &Template{Stage: stage, System: tf.System, user: user}
	}
	return c, nil
}

// Render produces the system and user messages for a stage.
func (c *Catalog) Render(stage string, data any) (system, user string, err error) {
	t, ok := c.templates[stage]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt stage %q", stage)
	}
	var buf bytes.Buffer
	if err := t.user.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s prompt: %w", stage, err)
	}
	return t.System, buf.String(), nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
