// Package pdf renders a fully resolved invoice into a one-page PDF
// document. Pure data-to-document transform: no queries, no layout logic
// beyond conditional inclusion of optional fields.
package pdf

import (
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Party is one side of the From / Bill To blocks.
type Party struct {
	Name    string
	Contact string
	Email   string
	Phone   string
	Address string
	TaxID   string
}

// Item is one rendered invoice line; amounts arrive pre-formatted.
type Item struct {
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

// InvoiceData carries everything the document shows.
type InvoiceData struct {
	Number    string // zero-padded, e.g. "007"
	Status    string
	IssueDate string
	DueDate   string
	From      Party
	BillTo    Party
	Items     []Item
	Total     string
	Notes     string
	Terms     string
}

// Render produces the PDF bytes for one invoice.
func Render(data InvoiceData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	buildHeader(m, data)
	buildParties(m, data)
	buildItemTable(m, data)
	buildFootnotes(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func buildHeader(m core.Maroto, data InvoiceData) {
	m.AddRow(12,
		text.NewCol(8, "INVOICE #"+data.Number, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, strings.ToUpper(data.Status), props.Text{Size: 11, Align: align.Right, Top: 3}),
	)
	m.AddRow(6,
		text.NewCol(6, "Issued: "+data.IssueDate, props.Text{Size: 9}),
		text.NewCol(6, "Due: "+data.DueDate, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(4, line.NewCol(12))
}

func buildParties(m core.Maroto, data InvoiceData) {
	m.AddRow(8,
		text.NewCol(6, "From", props.Text{Size: 10, Style: fontstyle.Bold, Top: 2}),
		text.NewCol(6, "Bill To", props.Text{Size: 10, Style: fontstyle.Bold, Top: 2}),
	)
	from := partyLines(data.From)
	billTo := partyLines(data.BillTo)
	for len(from) < len(billTo) {
		from = append(from, "")
	}
	for len(billTo) < len(from) {
		billTo = append(billTo, "")
	}
	for i := range from {
		m.AddRow(5,
			text.NewCol(6, from[i], props.Text{Size: 9}),
			text.NewCol(6, billTo[i], props.Text{Size: 9}),
		)
	}
	m.AddRow(4, col.New(12))
}

func partyLines(p Party) []string {
	lines := make([]string, 0, 6)
	for _, l := range []string{p.Name, p.Contact, p.Email, p.Phone, p.Address} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if p.TaxID != "" {
		lines = append(lines, "Tax ID: "+p.TaxID)
	}
	return lines
}

func buildItemTable(m core.Maroto, data InvoiceData) {
	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}),
		text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, "Unit Price", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, "Amount", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
	)
	m.AddRow(2, line.NewCol(12))
	for _, item := range data.Items {
		m.AddRow(6,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.LineTotal, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		text.NewCol(2, data.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
	)
}

func buildFootnotes(m core.Maroto, data InvoiceData) {
	if data.Notes != "" {
		m.AddRow(8, text.NewCol(12, "Notes", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}))
		m.AddRow(10, text.NewCol(12, data.Notes, props.Text{Size: 9}))
	}
	if data.Terms != "" {
		m.AddRow(8, text.NewCol(12, "Terms", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}))
		m.AddRow(10, text.NewCol(12, data.Terms, props.Text{Size: 9}))
	}
}
