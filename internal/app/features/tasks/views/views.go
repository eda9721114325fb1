// internal/app/features/tasks/views/views.go
package tasks

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "tasks",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
