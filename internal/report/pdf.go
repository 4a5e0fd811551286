package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PDFOptions configure WritePDF. FontPath names a UTF-8 TrueType font able to
// draw the account labels; without one the core Arial font is used and
// characters outside ASCII are dropped.
type PDFOptions struct {
	FontPath string
	Currency string
}

type pdfWriter struct {
	pdf     *gofpdf.Fpdf
	family  string
	unicode bool
	cur     string
}

func newPDFWriter(opts PDFOptions) *pdfWriter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	w := &pdfWriter{pdf: pdf, family: "Arial", cur: opts.Currency}
	if opts.FontPath != "" {
		pdf.AddUTF8Font("body", "", opts.FontPath)
		pdf.AddUTF8Font("body", "B", opts.FontPath)
		w.family = "body"
		w.unicode = true
	}
	pdf.AddPage()
	return w
}

// text returns s, or fallback when the core font cannot draw any of s.
func (w *pdfWriter) text(s, fallback string) string {
	if w.unicode {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(strings.Join(strings.Fields(b.String()), " "), " -")
	if out == "" {
		return fallback
	}
	return out
}

func (w *pdfWriter) heading(s string) {
	w.pdf.SetFont(w.family, "B", 14)
	w.pdf.CellFormat(0, 10, s, "", 1, "L", false, 0, "")
}

func (w *pdfWriter) row(label string, amount decimal.Decimal, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	w.pdf.SetFont(w.family, style, 10)
	w.pdf.CellFormat(130, 6, label, "B", 0, "L", false, 0, "")
	w.pdf.CellFormat(50, 6, Amount(amount, w.cur), "B", 1, "R", false, 0, "")
}

func (w *pdfWriter) section(s Section, fallback string) {
	w.heading(w.text(s.Title, fallback))
	for _, g := range s.Groups {
		w.row(w.text(g.Name, "-"), g.Total, true)
		for _, a := range g.Accounts() {
			w.row("    "+w.text(a.ID+" - "+a.Name, a.ID), a.Balance, false)
		}
	}
	w.row(w.text(s.Title+" 總計", fallback+" total"), s.Total, true)
	w.pdf.Ln(4)
}

// WritePDF writes a *BalanceSheet or *IncomeStatement as an A4 document.
func WritePDF(out io.Writer, report any, opts PDFOptions) error {
	w := newPDFWriter(opts)
	switch r := report.(type) {
	case *BalanceSheet:
		w.heading(w.text("資產負債表 "+r.Month, "Balance sheet "+r.Month))
		w.pdf.Ln(2)
		fallbacks := []string{"Assets", "Liabilities", "Equity"}
		for i, s := range r.Sections() {
			w.section(s, fallbacks[i])
		}
		w.row(w.text("盼望的負債及所賜的福份總計", "Liabilities and equity"), r.LiabilitiesAndEquity(), true)
		w.row(w.text("恩典的資產總計", "Total assets"), r.Assets.Total, true)
	case *IncomeStatement:
		w.heading(w.text("損益表 "+r.Period.String(), "Income statement "+r.Period.String()))
		w.pdf.Ln(2)
		fallbacks := []string{"Income", "Living expenses", "Other expenses", "Other income", "Other expenses (non-operating)"}
		for i, s := range r.Sections() {
			if !s.Empty() {
				w.section(s, fallbacks[i])
			}
		}
		w.row(w.text("本期損益", "Net income"), r.NetIncome, true)
	default:
		return fmt.Errorf("no pdf layout for %T", report)
	}
	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
