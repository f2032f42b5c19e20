package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributorTemplateShape(t *testing.T) {
	specs, err := Template(OrderTypeDistributor)
	require.NoError(t, err)
	require.Len(t, specs, 11)

	assert.Equal(t, LabelOrderPlaced, specs[0].Label)
	assert.Equal(t, LabelOrderReceived, specs[len(specs)-1].Label)

	// Artifact steps carry documents, and only the terminal step asks for
	// a distributor acknowledgement.
	var artifacts, acks []string
	for _, s := range specs {
		if s.HasArtifact {
			artifacts = append(artifacts, s.Label)
		}
		if s.RequiresAck {
			acks = append(acks, s.Label)
		}
	}
	assert.Equal(t, []string{LabelProformaInvoice, LabelGDNGenerated}, artifacts)
	assert.Equal(t, []string{LabelOrderReceived}, acks)
}

func TestTemplateReturnsCopy(t *testing.T) {
	a, err := Template(OrderTypeDistributor)
	require.NoError(t, err)
	a[0].Label = "mutated"

	b, err := Template(OrderTypeDistributor)
	require.NoError(t, err)
	assert.Equal(t, LabelOrderPlaced, b[0].Label)
}

func TestTemplateUnknownType(t *testing.T) {
	_, err := Template(OrderType("export"))
	assert.ErrorIs(t, err, ErrUnknownOrderType)
}
