package printing

import (
	"github.com/erp/receipt/internal/domain/receipt"
)

const printTriggerScript = `
<script>
    window.onload = function() {
        window.print();
        setTimeout(function() {
            window.close();
        }, 1000);
    };
</script>
`

const previewTriggerScript = `
<script>
    window.onload = function() {
        setTimeout(function() {
            window.close();
        }, 1000);
    };
</script>
`

// InjectPrintTrigger adds the script that prints the document once it loads
// and closes the surface afterwards. Preview documents only close.
func InjectPrintTrigger(doc receipt.Document, mode receipt.PrintMode) receipt.Document {
	if mode.IsPreview() {
		return doc.InsertBeforeBodyClose(previewTriggerScript)
	}
	return doc.InsertBeforeBodyClose(printTriggerScript)
}
