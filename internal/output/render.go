// internal/output/render.go
package output

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/bkaplan/brickwatch/internal/utils"
	"github.com/bkaplan/brickwatch/pkg/types"
)

// ConsoleSummary renders a plain-text run summary suitable for logs
// and terminal output.
func ConsoleSummary(report *types.ChangeReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s\n", report.Category)
	fmt.Fprintf(&b, "Products: %d current, %d previous\n",
		report.Summary.TotalCurrentProducts, report.Summary.TotalHistoricalProducts)

	if !report.HasChanges() {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	if len(report.PriceChanges) > 0 {
		fmt.Fprintf(&b, "Price changes (%d):\n", len(report.PriceChanges))
		for _, change := range report.PriceChanges {
			percent := fmt.Sprintf("%+.2f%%", change.PercentChange)
			if change.Unbounded {
				percent = "from zero"
			}
			fmt.Fprintf(&b, "  %s %s: %.2f -> %.2f (%s)\n",
				change.ProductID, change.ProductName,
				change.PreviousPrice, change.CurrentPrice, percent)
		}
	}
	if len(report.NewProducts) > 0 {
		fmt.Fprintf(&b, "New products (%d):\n", len(report.NewProducts))
		for _, product := range report.NewProducts {
			fmt.Fprintf(&b, "  %s %s at %.2f\n", product.ID, product.Name, product.Price)
		}
	}
	if len(report.RemovedProducts) > 0 {
		fmt.Fprintf(&b, "Removed products (%d):\n", len(report.RemovedProducts))
		for _, product := range report.RemovedProducts {
			fmt.Fprintf(&b, "  %s %s last seen at %.2f\n", product.ID, product.Name, product.LastPrice)
		}
	}
	if len(report.OtherChanges) > 0 {
		fmt.Fprintf(&b, "Other changes (%d):\n", len(report.OtherChanges))
		for _, change := range report.OtherChanges {
			fields := make([]string, 0, len(change.Changes))
			for field := range change.Changes {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			fmt.Fprintf(&b, "  %s %s: %s\n", change.ID, change.Name, strings.Join(fields, ", "))
		}
	}
	return b.String()
}

var emailTemplate = template.Must(template.New("report").Parse(`<html>
<body>
<h2>Price report for {{.Category}}</h2>
<p>{{.Summary.TotalCurrentProducts}} products tracked.</p>
{{if .PriceChanges}}
<h3>Price changes</h3>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>Name</th><th>Previous</th><th>Current</th><th>Change</th></tr>
{{range .PriceChanges}}
<tr><td>{{.ProductID}}</td><td>{{.ProductName}}</td><td>{{printf "%.2f" .PreviousPrice}}</td><td>{{printf "%.2f" .CurrentPrice}}</td><td>{{if .Unbounded}}from zero{{else}}{{printf "%.2f" .PercentChange}}%{{end}} ({{.ChangeType}})</td></tr>
{{end}}
</table>
{{end}}
{{if .NewProducts}}
<h3>New products</h3>
<ul>
{{range .NewProducts}}<li>{{.ID}} {{.Name}} at {{printf "%.2f" .Price}}</li>
{{end}}</ul>
{{end}}
{{if .RemovedProducts}}
<h3>Removed products</h3>
<ul>
{{range .RemovedProducts}}<li>{{.ID}} {{.Name}} last seen at {{printf "%.2f" .LastPrice}}</li>
{{end}}</ul>
{{end}}
{{if not .HasChanges}}
<p>No changes detected.</p>
{{end}}
</body>
</html>
`))

// EmailBody renders the report as an HTML document ready for a mail
// notifier.
func EmailBody(report *types.ChangeReport) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, report); err != nil {
		return "", utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to render email body")
	}
	return buf.String(), nil
}
