package printing

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receipt/internal/domain/receipt"
)

func TestMarotoReceiptRenderer_Render(t *testing.T) {
	r := NewMarotoReceiptRenderer(nil)

	for _, paper := range []receipt.PaperSize{receipt.Paper58mm, receipt.Paper80mm, receipt.PaperA4} {
		t.Run(paper.String(), func(t *testing.T) {
			cfg := receipt.DefaultPrintConfig()
			cfg.PaperSize = paper
			cfg.Copies = 2
			cfg.IncludeClientCopy = true
			data, err := r.Render(sampleTransaction(), receipt.Company{}, cfg)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		})
	}
}

func TestMarotoReceiptRenderer_InvalidTransaction(t *testing.T) {
	tx := sampleTransaction()
	tx.Items = nil
	_, err := NewMarotoReceiptRenderer(nil).Render(tx, receipt.Company{}, receipt.DefaultPrintConfig())
	assert.True(t, errors.Is(err, receipt.ErrComposition))
}
