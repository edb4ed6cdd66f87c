package report

import (
	"strings"
	"testing"
	"time"

	"github.com/greenplanet/inventory-server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func sampleItems() []model.Item {
	return []model.Item{
		{Name: "Samsung TV", Category: model.CategoryElectronics, Condition: model.ConditionGood, EstimatedValue: fp(1200)},
		{Name: "Gold Ring", Category: model.CategoryJewelry, Condition: model.ConditionExcellent, EstimatedValue: fp(850.5)},
		{Name: "Old Chair", Category: model.CategoryFurniture, Condition: model.ConditionPoor},
	}
}

func TestDefaultData(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	d := DefaultData(now)
	assert.Equal(t, "Personal Property Inventory Report", d.Title)
	assert.Equal(t, "Insurance Claim Documentation", d.Purpose)
	assert.Equal(t, "2026-03-14", d.ReportDate)
	assert.Empty(t, d.OwnerName)
}

func TestFillFromAccount(t *testing.T) {
	d := DefaultData(time.Now())
	d.FillFromAccount(&model.Account{
		CompanyName:              "Green Planet Restoration",
		CompanyAddress:           "42 Elm St",
		IICRCCertificationNumber: "IICRC-7",
	})
	assert.Equal(t, "Green Planet Restoration", d.OwnerName)
	assert.Equal(t, "42 Elm St", d.OwnerAddress)
	assert.Equal(t, "IICRC-7", d.IICRCCertificationNumber)

	// Existing form values win over profile values.
	d2 := Data{OwnerName: "Jane Doe"}
	d2.FillFromAccount(&model.Account{CompanyName: "Acme"})
	assert.Equal(t, "Jane Doe", d2.OwnerName)
}

func TestRenderDocument(t *testing.T) {
	d := DefaultData(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	d.OwnerName = "Jane Doe"
	d.AdditionalNotes = "Water damage in basement"
	d.IICRCCertificationNumber = "IICRC-7"

	html, err := RenderDocument(d, sampleItems())
	require.NoError(t, err)

	assert.Contains(t, html, "Personal Property Inventory Report")
	assert.Contains(t, html, "Jane Doe")
	assert.Contains(t, html, "March 14, 2026")
	assert.Contains(t, html, "1. Samsung TV")
	assert.Contains(t, html, "3. Old Chair")
	assert.Contains(t, html, "$2,050.5") // 1200 + 850.5, absent value counts as 0
	assert.Contains(t, html, "Water damage in basement")
	assert.Contains(t, html, "Certification #IICRC-7")
}

func TestRenderPreview(t *testing.T) {
	d := DefaultData(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	html, err := RenderPreview(d, sampleItems())
	require.NoError(t, err)
	assert.Contains(t, html, "Samsung TV")
	assert.Contains(t, html, "$2,050.5")
	// Empty owner renders as N/A.
	assert.Contains(t, html, "N/A")
}

func TestTotalMatchesAcrossRenderings(t *testing.T) {
	d := DefaultData(time.Now())
	items := sampleItems()

	doc, err := RenderDocument(d, items)
	require.NoError(t, err)
	preview, err := RenderPreview(d, items)
	require.NoError(t, err)
	email, err := RenderEmailBody("Dear adjuster,", items, time.Now())
	require.NoError(t, err)

	for _, html := range []string{doc, preview, email} {
		assert.Contains(t, html, "$2,050.5")
	}
}

func TestRenderEmailBody(t *testing.T) {
	cover := "Dear Claims Department,\n\nPlease find our documentation below.\n\nRegards,\nJane"
	html, err := RenderEmailBody(cover, sampleItems(), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Newlines in the cover become <br />.
	assert.Contains(t, html, "Dear Claims Department,<br />")
	assert.NotContains(t, html, "Dear Claims Department,\n")

	assert.Contains(t, html, "Detailed Inventory Report")
	assert.Contains(t, html, "Samsung TV")
	assert.Contains(t, html, "$1,200")
	// Missing value renders as $0 in the table.
	assert.Contains(t, html, "$0")
	assert.Contains(t, html, "Total Estimated Value")
	assert.Contains(t, html, "3/14/2026")
}

func TestRenderEmailBody_EscapesCover(t *testing.T) {
	html, err := RenderEmailBody("<script>alert(1)</script>", nil, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.True(t, strings.Contains(html, "&lt;script&gt;"))
}
