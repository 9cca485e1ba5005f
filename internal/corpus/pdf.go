package corpus

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText pulls plain text from every page of a PDF manual.
// Pages that fail to decode are skipped rather than failing the document;
// scanned pages without a text layer simply contribute nothing.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
