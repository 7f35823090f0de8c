// Package prompts holds the fixed instruction templates sent to the
// reasoning and extraction services. Templates are embedded at compile time.
package prompts

import (
	_ "embed"
	"strings"
	"sync"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Template names.
const (
	Profile    = "profile"
	Events     = "events"
	Extract    = "extract"
	Prioritize = "prioritize"
	Outreach   = "outreach"
)

//go:embed prompts.yaml
var catalogueYAML []byte

// Prompt is a rendered system/user message pair.
type Prompt struct {
	System string
	User   string
}

type entry struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system string
	user   *template.Template
}

var (
	loadOnce  sync.Once
	catalogue map[string]compiled
	loadErr   error
)

func load() (map[string]compiled, error) {
	loadOnce.Do(func() {
		var raw map[string]entry
		if err := yaml.Unmarshal(catalogueYAML, &raw); err != nil {
			loadErr = eris.Wrap(err, "prompts: parse catalogue")
			return
		}
		catalogue = make(map[string]compiled, len(raw))
		for name, e := range raw {
			tmpl, err := template.New(name).Option("missingkey=error").Parse(e.User)
			if err != nil {
				loadErr = eris.Wrapf(err, "prompts: parse template %s", name)
				return
			}
			catalogue[name] = compiled{system: strings.TrimSpace(e.System), user: tmpl}
		}
	})
	return catalogue, loadErr
}

// Render fills the named template with data.
func Render(name string, data any) (Prompt, error) {
	cat, err := load()
	if err != nil {
		return Prompt{}, err
	}
	c, ok := cat[name]
	if !ok {
		return Prompt{}, eris.Errorf("prompts: unknown template %q", name)
	}

	var b strings.Builder
	if err := c.user.Execute(&b, data); err != nil {
		return Prompt{}, eris.Wrapf(err, "prompts: render %s", name)
	}
	return Prompt{System: c.system, User: strings.TrimSpace(b.String())}, nil
}

// Names returns the template names in the catalogue.
func Names() ([]string, error) {
	cat, err := load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cat))
	for name := range cat {
		names = append(names, name)
	}
	return names, nil
}
