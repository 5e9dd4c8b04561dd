package contact

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osteele/liquid"
)

//go:embed templates/*.txt
var templateFS embed.FS

// templateNames maps each variant to its subject and body template files.
var templateNames = map[Kind]struct{ subject, body string }{
	KindBase:    {subject: "contact_form_subject.txt", body: "contact_form.txt"},
	KindCompany: {subject: "contact_form_subject_armstrong.txt", body: "contact_form_armstrong.txt"},
}

// Templates holds the parsed subject and body templates for every variant.
// Parsed templates are immutable and safe for concurrent rendering.
type Templates struct {
	subject map[Kind]*liquid.Template
	body    map[Kind]*liquid.Template
}

// LoadTemplates parses the built-in templates. A file of the same name in
// dir, when dir is non-empty, replaces the built-in one.
func LoadTemplates(dir string) (*Templates, error) {
	engine := liquid.NewEngine()

	t := &Templates{
		subject: make(map[Kind]*liquid.Template, len(templateNames)),
		body:    make(map[Kind]*liquid.Template, len(templateNames)),
	}

	for kind, names := range templateNames {
		subject, err := parseTemplate(engine, dir, names.subject)
		if err != nil {
			return nil, err
		}
		body, err := parseTemplate(engine, dir, names.body)
		if err != nil {
			return nil, err
		}
		t.subject[kind] = subject
		t.body[kind] = body
	}

	return t, nil
}

func parseTemplate(engine *liquid.Engine, dir, name string) (*liquid.Template, error) {
	src, err := readTemplate(dir, name)
	if err != nil {
		return nil, err
	}
	tpl, perr := engine.ParseTemplate(src)
	if perr != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, perr)
	}
	return tpl, nil
}

func readTemplate(dir, name string) ([]byte, error) {
	if dir != "" {
		src, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
	}
	src, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("read built-in template %s: %w", name, err)
	}
	return src, nil
}

func (t *Templates) render(set map[Kind]*liquid.Template, kind Kind, bindings liquid.Bindings) (string, error) {
	tpl, ok := set[kind]
	if !ok {
		return "", fmt.Errorf("no template for contact form %q", kind)
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return out, nil
}
