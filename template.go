package turnstile

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var controlTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderControl writes the markup of the template named by rc.
func RenderControl(w io.Writer, rc RenderContext) error {
	tmpl := controlTemplates.Lookup(rc.Template)
	if tmpl == nil {
		return fmt.Errorf("unknown control template %q", rc.Template)
	}
	return tmpl.Execute(w, rc.Values)
}
