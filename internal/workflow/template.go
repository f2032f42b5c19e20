package workflow

import "time"

// OrderType selects which step template an order is created from.
type OrderType string

const (
	// OrderTypeDistributor is the standard distributor purchase pipeline.
	OrderTypeDistributor OrderType = "distributor"
)

// Step labels for the distributor pipeline.
const (
	LabelOrderPlaced        = "Order Placed"
	LabelPendingSales       = "Pending Approval from Sales"
	LabelApprovedSales      = "Approved from Sales"
	LabelProformaInvoice    = "Proforma Invoice Generated"
	LabelAwaitingPayment    = "Awaiting Payment Confirmation from Accounts"
	LabelApprovedAccounts   = "Approved from Accounts"
	LabelAwaitingLogistics  = "Awaiting Confirmation from Logistics"
	LabelApprovedLogistics  = "Approved from Logistics"
	LabelGDNGenerated       = "GDN Generated"
	LabelOnTheWay           = "Order is On the Way"
	LabelOrderReceived      = "Order Received"
)

// StepSpec describes one template entry.
type StepSpec struct {
	Label       string
	HasArtifact bool
	RequiresAck bool
}

// templates maps order types to their immutable step sequences. Resolved
// once at order creation, never recomputed.
var templates = map[OrderType][]StepSpec{
	OrderTypeDistributor: {
		{Label: LabelOrderPlaced},
		{Label: LabelPendingSales},
		{Label: LabelApprovedSales},
		{Label: LabelProformaInvoice, HasArtifact: true},
		{Label: LabelAwaitingPayment},
		{Label: LabelApprovedAccounts},
		{Label: LabelAwaitingLogistics},
		{Label: LabelApprovedLogistics},
		{Label: LabelGDNGenerated, HasArtifact: true},
		{Label: LabelOnTheWay},
		{Label: LabelOrderReceived, RequiresAck: true},
	},
}

// Template returns a copy of the step specs for an order type.
func Template(t OrderType) ([]StepSpec, error) {
	specs, ok := templates[t]
	if !ok {
		return nil, ErrUnknownOrderType
	}
	out := make([]StepSpec, len(specs))
	copy(out, specs)
	return out, nil
}

// NewOrder builds an Order from the template for the given type. Every step
// starts pending except the first, which completes immediately with the
// order date.
func NewOrder(t OrderType, orderNumber, distributorName string, orderDate time.Time, totalAmount float64) (*Order, error) {
	specs, err := Template(t)
	if err != nil {
		return nil, err
	}
	steps := make([]OrderStep, len(specs))
	for i, spec := range specs {
		steps[i] = OrderStep{
			Label:       spec.Label,
			Status:      StepPending,
			HasArtifact: spec.HasArtifact,
			RequiresAck: spec.RequiresAck,
		}
	}
	if len(steps) > 0 {
		placed := orderDate
		steps[0].Status = StepCompleted
		steps[0].Date = &placed
		remarks := "Order submitted by distributor"
		steps[0].Remarks = &remarks
	}
	return &Order{
		OrderNumber:     orderNumber,
		OrderType:       t,
		DistributorName: distributorName,
		OrderDate:       orderDate,
		TotalAmount:     totalAmount,
		Steps:           steps,
	}, nil
}
