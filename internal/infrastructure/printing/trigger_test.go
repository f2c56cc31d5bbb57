package printing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erp/receipt/internal/domain/receipt"
)

func TestInjectPrintTrigger(t *testing.T) {
	doc := receipt.Document("<html><body><p>recibo</p></body></html>")

	printed := InjectPrintTrigger(doc, receipt.PrintModeDialog).String()
	assert.Contains(t, printed, "window.print();")
	assert.Contains(t, printed, "}, 1000);")
	assert.True(t, strings.HasSuffix(printed, "</script>\n</body></html>"))
	assert.Less(t, strings.Index(printed, "<p>recibo</p>"), strings.Index(printed, "<script>"))

	preview := InjectPrintTrigger(doc, receipt.PrintModePreview).String()
	assert.NotContains(t, preview, "window.print()")
	assert.Contains(t, preview, "window.close();")

	assert.Equal(t, "<html><body><p>recibo</p></body></html>", doc.String())
}

func TestWrapForDirectPrint(t *testing.T) {
	out, err := WrapForDirectPrint(`<div class="center">Loja & Cia</div>`)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<meta charset="UTF-8">`)
	assert.Contains(t, out, "<title>Comprovante de Venda</title>")
	assert.Contains(t, out, "font-family: 'Courier New', monospace; width: 80mm;")
	assert.Contains(t, out, `<div class="center">Loja & Cia</div>`)
	assert.Contains(t, out, "}, 500);")
}
