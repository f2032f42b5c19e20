package documents

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templates embed.FS

// RenderData is the view model passed to document templates.
type RenderData struct {
	DocNumber       string
	OrderNumber     string
	DistributorName string
	OrderDate       time.Time
	TotalAmount     float64
	GeneratedBy     string
	GeneratedAt     time.Time
}

// Renderer turns order data into the plain-text document payload.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer parses the document templates with shared formatting helpers.
func NewRenderer() (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"formatAmount": func(v float64) string {
			return printer.Sprintf("INR %.2f", v)
		},
	}
	tpl, err := template.New("documents").Funcs(funcMap).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render executes the template for the given document type.
func (r *Renderer) Render(docType DocumentType, data RenderData) (string, error) {
	buf := &bytes.Buffer{}
	name := string(docType) + ".tmpl"
	if err := r.tpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", docType, err)
	}
	return buf.String(), nil
}
