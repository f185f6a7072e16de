package templates

import (
	"embed"
	"html/template"
)

//go:embed base.html partials/*.html
var FS embed.FS

// Page parses base.html together with the named partial. Each page gets its own tree so
// partials do not override each other's "content" block.
func Page(partial string) *template.Template {
	return template.Must(template.ParseFS(FS, "base.html", "partials/"+partial))
}

// Partial parses a standalone partial, used for fragment responses.
func Partial(partial string) *template.Template {
	return template.Must(template.ParseFS(FS, "partials/"+partial))
}
