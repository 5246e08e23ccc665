package notify

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns a template key and its data into a subject and a plain-text body.
type Renderer struct {
	sets map[string]*template.Template
}

// NewRenderer parses one template set per key and fails if any key lacks
// a "subject" or "body" definition.
func NewRenderer(keys []string) (*Renderer, error) {
	r := &Renderer{sets: make(map[string]*template.Template, len(keys))}
	for _, key := range keys {
		t, err := template.ParseFS(templateFS, "templates/"+key+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", key, err)
		}
		for _, part := range []string{"subject", "body"} {
			if t.Lookup(part) == nil {
				return nil, fmt.Errorf("template %s: missing %q block", key, part)
			}
		}
		r.sets[key] = t
	}
	return r, nil
}

func (r *Renderer) Render(key string, data map[string]any) (subject, body string, err error) {
	t, ok := r.sets[key]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", key)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", key, err)
	}
	// headers are single-line
	subject = strings.Join(strings.Fields(buf.String()), " ")

	buf.Reset()
	if err := t.ExecuteTemplate(&buf, "body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", key, err)
	}
	return subject, strings.TrimSpace(buf.String()) + "\n", nil
}
