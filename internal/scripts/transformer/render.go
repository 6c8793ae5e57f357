package transformer

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

var moduleTemplate = template.Must(template.New("module").Funcs(template.FuncMap{
	"json": toJSON,
}).Parse(`{{range .Imports}}{{.}}
{{end}}
export const metadata = {{json .Metadata}};

export function matchCondition(host) {
	return {{.Condition}};
}

export default {{if .Async}}async {{end}}function (context) {
{
{{.Body}}
}
}
`))

type moduleData struct {
	Imports   []string
	Metadata  types.Metadata
	Condition string
	Async     bool
	Body      string
}

// Render emits the wrapped module. The body sits in its own block so script
// bindings may shadow the context parameter. condition is a JavaScript boolean
// expression over the parameter host.
func Render(m *Module, meta types.Metadata, condition string) (string, error) {
	var b strings.Builder
	err := moduleTemplate.Execute(&b, moduleData{
		Imports:   m.Imports,
		Metadata:  meta,
		Condition: condition,
		Async:     m.Async,
		Body:      strings.TrimSpace(m.Body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render module: %w", err)
	}
	return b.String(), nil
}

func toJSON(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
