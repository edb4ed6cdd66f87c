package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/greenplanet/inventory-server/inventory"
	"github.com/greenplanet/inventory-server/model"
)

// Data is the report form. It feeds all three renderings.
type Data struct {
	Title                    string `json:"title"`
	OwnerName                string `json:"owner_name"`
	OwnerAddress             string `json:"owner_address"`
	ReportDate               string `json:"report_date"`
	Purpose                  string `json:"purpose"`
	AdditionalNotes          string `json:"additional_notes"`
	IICRCCertificationNumber string `json:"iicrc_certification_number"`
}

// DefaultData returns the prefilled report form.
func DefaultData(now time.Time) Data {
	return Data{
		Title:      "Personal Property Inventory Report",
		ReportDate: now.Format("2006-01-02"),
		Purpose:    "Insurance Claim Documentation",
	}
}

// FillFromAccount overlays the account's company fields onto empty
// form fields.
func (d *Data) FillFromAccount(acc *model.Account) {
	if acc == nil {
		return
	}
	if d.OwnerName == "" {
		d.OwnerName = acc.CompanyName
	}
	if d.OwnerAddress == "" {
		d.OwnerAddress = acc.CompanyAddress
	}
	if d.IICRCCertificationNumber == "" {
		d.IICRCCertificationNumber = acc.IICRCCertificationNumber
	}
}

var funcs = template.FuncMap{
	"usd": inventory.FormatUSD,
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
	"usdPtr": func(v *float64) string {
		if v == nil {
			return inventory.FormatUSD(0)
		}
		return inventory.FormatUSD(*v)
	},
	"valueOrNA": func(v *float64) string {
		if v == nil {
			return "N/A"
		}
		return "$" + inventory.FormatUSD(*v)
	},
	"dateOrNA": func(t *time.Time) string {
		if t == nil {
			return "N/A"
		}
		return t.Format("01/02/2006")
	},
	"longDate": func(s string) string {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return s
		}
		return t.Format("January 2, 2006")
	},
	"inc": func(i int) int { return i + 1 },
}

type reportContext struct {
	Data       Data
	Items      []model.Item
	ItemCount  int
	TotalValue float64
}

var documentTmpl = template.Must(template.New("document").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>{{.Data.Title}}</title>
<style>
  @page { size: A4; margin: 20mm; }
  body { font-family: sans-serif; color: #1a1a1a; }
  h1 { text-align: center; margin-bottom: 4px; }
  .firm { text-align: center; color: #047857; font-weight: 600; margin-bottom: 24px; }
  .section { border: 1px solid #ddd; border-radius: 8px; padding: 16px; margin-bottom: 24px; }
  .summary { background: #f8f8f8; text-align: center; }
  .summary .figure { font-size: 28px; font-weight: bold; }
  .item { border: 1px solid #ddd; border-radius: 8px; padding: 16px; margin-bottom: 16px; page-break-inside: avoid; }
  .item img { width: 110px; height: 110px; object-fit: cover; float: right; margin-left: 16px; }
  .meta { font-size: 13px; }
  footer { margin-top: 32px; border-top: 1px solid #ddd; padding-top: 12px; text-align: center; font-size: 11px; color: #888; }
</style>
</head>
<body>
<h1>{{.Data.Title}}</h1>
<div class="firm">Green Planet Restoration</div>

<div class="section">
  <h2>Report Details</h2>
  <p><strong>Client:</strong> {{orNA .Data.OwnerName}}<br />
  <strong>Property Address:</strong> {{orNA .Data.OwnerAddress}}<br />
  <strong>Report Date:</strong> {{longDate .Data.ReportDate}}<br />
  <strong>Purpose:</strong> {{orNA .Data.Purpose}}</p>
</div>

<div class="section summary">
  <h2>Inventory Summary</h2>
  <span class="figure">{{.ItemCount}}</span> Total Items &nbsp;|&nbsp;
  <span class="figure">${{usd .TotalValue}}</span> Total Estimated Value
</div>

<h2>Detailed Inventory</h2>
{{range $i, $item := .Items}}<div class="item">
  {{if $item.ImageURL}}<img src="{{$item.ImageURL}}" alt="{{$item.Name}}" />{{end}}
  <h3>{{inc $i}}. {{$item.Name}}</h3>
  {{if $item.Description}}<p>{{$item.Description}}</p>{{end}}
  <p class="meta">
    <strong>Category:</strong> {{orNA (printf "%s" $item.Category)}} |
    <strong>Condition:</strong> {{orNA (printf "%s" $item.Condition)}} |
    <strong>Brand:</strong> {{orNA $item.Brand}} |
    <strong>Model:</strong> {{orNA $item.Model}}<br />
    <strong>Location:</strong> {{orNA $item.RoomLocation}} |
    <strong>Serial #:</strong> {{orNA $item.SerialNumber}} |
    <strong>Purchased:</strong> {{dateOrNA $item.PurchaseDate}} |
    <strong>Cost:</strong> {{valueOrNA $item.PurchasePrice}}<br />
    <strong>Est. Value:</strong> {{valueOrNA $item.EstimatedValue}}
  </p>
</div>
{{end}}
{{if .Data.AdditionalNotes}}<div class="section">
  <h2>Additional Notes</h2>
  <p>{{.Data.AdditionalNotes}}</p>
</div>
{{end}}
<footer>
  <div><strong>Green Planet Restoration</strong></div>
  <p>Professional Property Assessment &amp; Documentation Services</p>
  <p>Report generated by the Green Planet Inventory Platform.</p>
  {{if .Data.IICRCCertificationNumber}}<p>IICRC Certified Firm | Certification #{{.Data.IICRCCertificationNumber}}</p>{{end}}
</footer>
</body>
</html>
`))

var previewTmpl = template.Must(template.New("preview").Funcs(funcs).Parse(`<div class="report-preview">
<h1>{{.Data.Title}}</h1>
<p class="firm">Green Planet Restoration</p>
<p>Generated for {{orNA .Data.OwnerName}}</p>
<dl>
  <dt>Client</dt><dd>{{orNA .Data.OwnerName}}</dd>
  <dt>Property Address</dt><dd>{{orNA .Data.OwnerAddress}}</dd>
  <dt>Report Date</dt><dd>{{longDate .Data.ReportDate}}</dd>
  <dt>Purpose</dt><dd>{{orNA .Data.Purpose}}</dd>
</dl>
<p><strong>{{.ItemCount}}</strong> items, total estimated value <strong>${{usd .TotalValue}}</strong></p>
<table>
  <thead><tr><th>#</th><th>Item</th><th>Category</th><th>Condition</th><th>Est. Value</th></tr></thead>
  <tbody>
  {{range $i, $item := .Items}}<tr><td>{{inc $i}}</td><td>{{$item.Name}}</td><td>{{orNA (printf "%s" $item.Category)}}</td><td>{{orNA (printf "%s" $item.Condition)}}</td><td>{{valueOrNA $item.EstimatedValue}}</td></tr>
  {{end}}</tbody>
</table>
{{if .Data.AdditionalNotes}}<p class="notes">{{.Data.AdditionalNotes}}</p>{{end}}
</div>
`))

type emailContext struct {
	Cover       template.HTML
	Items       []model.Item
	TotalValue  float64
	GeneratedOn string
}

var emailTmpl = template.Must(template.New("email").Funcs(funcs).Parse(`<html>
  <body style="font-family: sans-serif; line-height: 1.6;">
    {{.Cover}}
    <br/><br/>
    <hr/>
    <h2 style="font-family: sans-serif; color: #333;">Detailed Inventory Report</h2>
    <table style="width: 100%; border-collapse: collapse; font-family: sans-serif;">
      <thead>
        <tr style="background-color: #f2f2f2; text-align: left;">
          <th style="padding: 8px; border: 1px solid #ddd;">Item Name</th>
          <th style="padding: 8px; border: 1px solid #ddd;">Category</th>
          <th style="padding: 8px; border: 1px solid #ddd;">Condition</th>
          <th style="padding: 8px; border: 1px solid #ddd;">Est. Value</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}<tr style="border-bottom: 1px solid #ddd;">
          <td style="padding: 8px; border: 1px solid #ddd;">{{orNA .Name}}</td>
          <td style="padding: 8px; border: 1px solid #ddd;">{{orNA (printf "%s" .Category)}}</td>
          <td style="padding: 8px; border: 1px solid #ddd;">{{orNA (printf "%s" .Condition)}}</td>
          <td style="padding: 8px; border: 1px solid #ddd;">${{usdPtr .EstimatedValue}}</td>
        </tr>
        {{end}}</tbody>
      <tfoot>
        <tr style="background-color: #f2f2f2; font-weight: bold;">
          <td colspan="3" style="padding: 8px; border: 1px solid #ddd; text-align: right;">Total Estimated Value</td>
          <td style="padding: 8px; border: 1px solid #ddd;">${{usd .TotalValue}}</td>
        </tr>
      </tfoot>
    </table>
    <br/>
    <p style="font-family: sans-serif; font-size: 12px; color: #777;">
      This report was generated by the Green Planet Inventory Platform on {{.GeneratedOn}}.
    </p>
  </body>
</html>
`))

// RenderDocument produces the print-formatted report.
func RenderDocument(data Data, items []model.Item) (string, error) {
	return render(documentTmpl, data, items)
}

// RenderPreview produces the on-screen preview fragment.
func RenderPreview(data Data, items []model.Item) (string, error) {
	return render(previewTmpl, data, items)
}

func render(tmpl *template.Template, data Data, items []model.Item) (string, error) {
	var b strings.Builder
	err := tmpl.Execute(&b, reportContext{
		Data:       data,
		Items:      items,
		ItemCount:  len(items),
		TotalValue: inventory.TotalValue(items),
	})
	if err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}
	return b.String(), nil
}

// RenderEmailBody assembles the claim email: the AI-drafted cover
// (escaped, newlines to <br />) above the deterministic item table.
func RenderEmailBody(cover string, items []model.Item, generatedAt time.Time) (string, error) {
	escaped := template.HTMLEscapeString(cover)
	coverHTML := template.HTML(strings.ReplaceAll(escaped, "\n", "<br />"))

	var b strings.Builder
	err := emailTmpl.Execute(&b, emailContext{
		Cover:       coverHTML,
		Items:       items,
		TotalValue:  inventory.TotalValue(items),
		GeneratedOn: generatedAt.Format("1/2/2006"),
	})
	if err != nil {
		return "", fmt.Errorf("report: render email: %w", err)
	}
	return b.String(), nil
}
