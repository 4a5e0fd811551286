package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// sheetWriter appends rows to one worksheet.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	row    int
	bold   int
	number int
}

func newSheetWriter(f *excelize.File, sheet string) (*sheetWriter, error) {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "N", 14)
	return &sheetWriter{f: f, sheet: sheet, bold: bold, number: number}, nil
}

// line writes values into the next row. Decimal values become numeric cells.
func (w *sheetWriter) line(bold bool, values ...any) error {
	w.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		style := 0
		if d, ok := v.(decimal.Decimal); ok {
			v = d.InexactFloat64()
			style = w.number
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			return err
		}
		if bold {
			style = w.bold
		}
		if style != 0 {
			if err := w.f.SetCellStyle(w.sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *sheetWriter) blank() { w.row++ }

func (w *sheetWriter) section(s Section) error {
	if err := w.line(true, s.Title); err != nil {
		return err
	}
	for _, g := range s.Groups {
		if err := w.line(true, g.Name, g.Total); err != nil {
			return err
		}
		for _, a := range g.Accounts() {
			if err := w.line(false, a.ID+" - "+a.Name, a.Balance); err != nil {
				return err
			}
		}
	}
	if err := w.line(true, s.Title+" 總計", s.Total); err != nil {
		return err
	}
	w.blank()
	return nil
}

// WriteXLSX writes a *BalanceSheet, *IncomeStatement or *Dashboard as a
// single-sheet workbook.
func WriteXLSX(out io.Writer, report any) error {
	f := excelize.NewFile()
	defer f.Close()

	var sheet string
	switch report.(type) {
	case *BalanceSheet:
		sheet = "資產負債表"
	case *IncomeStatement:
		sheet = "損益表"
	case *Dashboard:
		sheet = "儀表板"
	default:
		return fmt.Errorf("no workbook layout for %T", report)
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	w, err := newSheetWriter(f, sheet)
	if err != nil {
		return fmt.Errorf("creating styles: %w", err)
	}

	switch r := report.(type) {
	case *BalanceSheet:
		err = writeBalanceSheet(w, r)
	case *IncomeStatement:
		err = writeIncomeStatement(w, r)
	case *Dashboard:
		err = writeDashboard(w, r)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", sheet, err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeBalanceSheet(w *sheetWriter, b *BalanceSheet) error {
	if err := w.line(true, "資產負債表 "+b.Month, "截至 "+b.AsOf); err != nil {
		return err
	}
	w.blank()
	for _, s := range b.Sections() {
		if err := w.section(s); err != nil {
			return err
		}
	}
	if err := w.line(true, "盼望的負債及所賜的福份總計", b.LiabilitiesAndEquity()); err != nil {
		return err
	}
	return w.line(true, "恩典的資產總計", b.Assets.Total)
}

func writeIncomeStatement(w *sheetWriter, s *IncomeStatement) error {
	if err := w.line(true, "損益表 "+s.Period.String(), s.From+" ~ "+s.To); err != nil {
		return err
	}
	w.blank()
	for _, sec := range s.Sections() {
		if sec.Empty() {
			continue
		}
		if err := w.section(sec); err != nil {
			return err
		}
	}
	return w.line(true, "本期損益", s.NetIncome)
}

func writeDashboard(w *sheetWriter, d *Dashboard) error {
	title := fmt.Sprintf("儀表板 %d", d.Year)
	if d.Month != 0 {
		title = fmt.Sprintf("儀表板 %d-%02d", d.Year, d.Month)
	}
	rows := [][]any{
		{title},
		{"期間收入", d.Income},
		{"期間費用", d.Expense},
		{"期間結餘", d.Net},
	}
	for _, r := range rows {
		if err := w.line(false, r...); err != nil {
			return err
		}
	}
	w.blank()

	for _, rk := range []struct {
		title string
		r     Ranking
	}{{"費用排行", d.TopExpenses}, {"收入排行", d.TopIncome}} {
		if err := w.line(true, rk.title); err != nil {
			return err
		}
		for _, it := range rk.r.Items {
			if err := w.line(false, it.Name, it.Total); err != nil {
				return err
			}
		}
		if err := w.line(true, "合計", rk.r.Total); err != nil {
			return err
		}
		w.blank()
	}

	header := []any{"月份"}
	for _, p := range d.SavingsTrend {
		header = append(header, p.Label)
	}
	if err := w.line(true, header...); err != nil {
		return err
	}
	series := append([]Trend{{Name: "本期恩典儲蓄", Points: d.SavingsTrend}}, d.Trends...)
	for _, t := range series {
		row := []any{t.Name}
		for _, p := range t.Points {
			row = append(row, p.Value)
		}
		if err := w.line(false, row...); err != nil {
			return err
		}
	}
	return nil
}
