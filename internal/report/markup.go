package report

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
)

//go:embed template.html
var reportTemplate string

var markupTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"dataURI": func(png []byte) template.URL {
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	},
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
}).Parse(reportTemplate))

// Markup renders the document to self-contained HTML: styles inline, chart
// imagery embedded as data URIs, no external fetches. This is the form the
// PDF rendering service consumes.
func Markup(doc *ReportDocument) (string, error) {
	var buf bytes.Buffer
	if err := markupTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render report markup: %w", err)
	}
	return buf.String(), nil
}
