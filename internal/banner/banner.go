package banner

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Data holds the fields available to banner templates.
type Data struct {
	SystemName string
	Version    string
	Port       int
	Lines      int
}

// Render parses and executes a banner template with the sprig function
// set, so operators can do things like {{.SystemName | upper}} in their
// welcome text.
func Render(tmpl string, data Data) (string, error) {
	t, err := template.New("banner").Funcs(sprig.FuncMap()).Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
