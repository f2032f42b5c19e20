package documents

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// DocumentType enumerates the artefacts the order pipeline produces.
type DocumentType string

const (
	TypeProformaInvoice DocumentType = "proforma_invoice"
	TypeGDN             DocumentType = "gdn"
)

// Prefix returns the document-number prefix for the type.
func (t DocumentType) Prefix() string {
	if t == TypeGDN {
		return "GDN"
	}
	return "PI"
}

// typeForStep maps artefact-bearing pipeline steps to document types.
var typeForStep = map[string]DocumentType{
	workflow.LabelProformaInvoice: TypeProformaInvoice,
	workflow.LabelGDNGenerated:    TypeGDN,
}

// Document is a generated artefact tied to one pipeline step of one order.
type Document struct {
	ID          uuid.UUID    `json:"id"`
	DocNumber   string       `json:"doc_number"`
	DocType     DocumentType `json:"doc_type"`
	OrderNumber string       `json:"order_number"`
	StepLabel   string       `json:"step_label"`
	Amount      float64      `json:"amount"`
	Payload     string       `json:"-"`
	GeneratedBy string       `json:"generated_by"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// GenerateRequest asks for the artefact of one step of one order.
type GenerateRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	StepLabel   string `json:"step_label" validate:"required"`
}

var (
	// ErrNoArtifact is returned for steps that do not produce a document.
	ErrNoArtifact = errors.New("documents: step produces no artifact")
)
