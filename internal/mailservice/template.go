package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// NewTemplates parses every email template once. Each file must define the subject,
// plainBody and htmlBody blocks.
func NewTemplates() (*Templates, error) {
	paths, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	set := make(map[string]*template.Template, len(paths))
	for _, p := range paths {
		t, err := template.New("email").ParseFS(templateFS, p)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", p, err)
		}

		for _, block := range []string{"subject", "plainBody", "htmlBody"} {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s does not define %q", p, block)
			}
		}

		set[path.Base(p)] = t
	}

	return &Templates{set: set}, nil
}

// Render executes the named template with data.
func (tp *Templates) Render(name string, data any) (*Email, error) {
	t, ok := tp.set[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", name)
	}

	var e Email
	for _, part := range []struct {
		block string
		dst   *string
	}{
		{"subject", &e.Subject},
		{"plainBody", &e.PlainBody},
		{"htmlBody", &e.HTMLBody},
	} {
		buf := new(bytes.Buffer)
		if err := t.ExecuteTemplate(buf, part.block, data); err != nil {
			return nil, err
		}
		*part.dst = buf.String()
	}

	return &e, nil
}
