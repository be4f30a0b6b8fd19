// Package layout compiles page layouts into render functions.
//
// Layouts use text/template syntax with `missingkey=error`, so a template that
// references a variable the page never declared fails instead of rendering an
// empty string.
package layout

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

// DefaultFile is the conventional layout file name at the top of the source root.
const DefaultFile = "_layout.html"

// ContentVar is the variable every layout receives with the page body.
const ContentVar = "content"

// Template is a compiled layout.
type Template struct {
	name string
	tpl  *template.Template
}

// Compile parses source into a Template. name is used in error messages.
func Compile(name, source string) (*Template, error) {
	tpl, err := template.New(filepath.Base(name)).Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryLayout, "parse layout").
			WithLayout(name).
			Build()
	}
	return &Template{name: name, tpl: tpl}, nil
}

// Load reads and compiles the layout at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read layout").
			WithLayout(path).
			Build()
	}
	return Compile(path, string(data))
}

// Name returns the name the template was compiled under.
func (t *Template) Name() string { return t.name }

// Render executes the layout with vars.
func (t *Template) Render(vars map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, vars); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryLayout, "render layout").
			WithLayout(t.name).
			Build()
	}
	return buf.String(), nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
