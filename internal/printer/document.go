package printer

import (
	"fmt"
	"html"
)

// documentTemplate pins the page to 58 mm with zero margin so printer
// drivers do not rescale the fixed-width text, and forces a monospace font
// so the 32-column layout keeps its character positions.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Struk %s</title>
<style>
@page {
  size: 58mm auto;
  margin: 0;
}
body {
  margin: 0;
  padding: 0;
  font-family: 'Courier New', 'Consolas', monospace;
}
@media print {
  body {
    width: 58mm;
  }
}
pre {
  margin: 0;
  font: inherit;
  font-size: 11px;
  line-height: 1.3;
}
</style>
</head>
<body>
<pre>%s</pre>
</body>
</html>
`

// Document wraps formatted receipt text in the minimal HTML document the
// print surface expects.
func Document(invoiceNumber, body string) string {
	return fmt.Sprintf(documentTemplate,
		html.EscapeString(invoiceNumber),
		html.EscapeString(body))
}
