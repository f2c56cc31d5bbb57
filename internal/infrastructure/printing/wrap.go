package printing

import (
	"bytes"
	"html/template"
)

var directPrintTemplate = template.Must(template.New("direct").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Comprovante de Venda</title>
    <style>
        body { font-family: 'Courier New', monospace; width: 80mm; margin: 0 auto; padding: 5px; }
        @media print {
            body { width: 80mm; }
        }
    </style>
</head>
<body>
    {{.}}
    <script>
        window.onload = function() {
            setTimeout(function() {
                window.print();
                setTimeout(function() {
                    window.close();
                }, 1000);
            }, 500);
        };
    </script>
</body>
</html>`))

// WrapForDirectPrint embeds submitted receipt markup in the standalone page
// the print service writes to disk and renders.
func WrapForDirectPrint(markup string) (string, error) {
	var buf bytes.Buffer
	if err := directPrintTemplate.Execute(&buf, template.HTML(markup)); err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to wrap document", err)
	}
	return buf.String(), nil
}
