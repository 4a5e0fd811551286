package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/report"
)

type reportOutput struct {
	format string
	out    string
	font   string
	style  string
}

func newReportCommand(a *app) *cobra.Command {
	var o reportOutput
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build financial reports",
	}
	cmd.PersistentFlags().StringVarP(&o.format, "format", "f", "md", "output format: md, term, html, xlsx, pdf or json")
	cmd.PersistentFlags().StringVarP(&o.out, "out", "o", "", "output file (default stdout)")
	cmd.PersistentFlags().StringVar(&o.font, "font", "", "TrueType font for PDF output (needed for CJK text)")
	cmd.PersistentFlags().StringVar(&o.style, "style", "dark", "terminal style for --format term")

	now := time.Now()

	var month string
	bs := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Balance sheet as of the end of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			r, err := report.BuildBalanceSheet(d.Accounts, d.JournalEntries, month, a.store.Config().Reports)
			if err != nil {
				return err
			}
			return a.render(cmd, o, r, "資產負債表 "+r.Month)
		},
	}
	bs.Flags().StringVar(&month, "month", now.Format("2006-01"), "month (YYYY-MM)")

	var period report.PeriodSpec
	var periodType string
	var post bool
	is := &cobra.Command{
		Use:   "income-statement",
		Short: "Income statement of a month, quarter, half or year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			period.Type = report.PeriodType(periodType)
			r, err := report.BuildIncomeStatement(d.Accounts, d.JournalEntries, period, post, a.store.Config().Reports)
			if err != nil {
				return err
			}
			return a.render(cmd, o, r, "損益表 "+period.String())
		},
	}
	is.Flags().IntVar(&period.Year, "year", now.Year(), "year")
	is.Flags().StringVar(&periodType, "type", string(report.Monthly), "period type: monthly, quarterly, half_yearly or yearly")
	is.Flags().IntVar(&period.Value, "value", int(now.Month()), "month, quarter or half of the year")
	is.Flags().BoolVar(&post, "post", false, "post-closing view: leave out closed months")

	var year, dashMonth int
	dash := &cobra.Command{
		Use:   "dashboard",
		Short: "Income, expense and savings overview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			r, err := report.BuildDashboard(d.Accounts, d.JournalEntries, year, dashMonth, a.store.Config().Reports)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("儀表板 %d", year)
			if dashMonth > 0 {
				title = "儀表板 " + model.MonthKey(year, dashMonth)
			}
			return a.render(cmd, o, r, title)
		},
	}
	dash.Flags().IntVar(&year, "year", now.Year(), "year")
	dash.Flags().IntVar(&dashMonth, "month", 0, "month (0 for the whole year)")

	cmd.AddCommand(bs, is, dash)
	return cmd
}

func (a *app) render(cmd *cobra.Command, o reportOutput, r any, title string) error {
	currency := a.store.Config().Reports.Currency
	return writeOut(cmd, o.out, func(w io.Writer) error {
		switch o.format {
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		case "xlsx":
			return report.WriteXLSX(w, r)
		case "pdf":
			return report.WritePDF(w, r, report.PDFOptions{FontPath: o.font, Currency: currency})
		}

		md, err := report.Markdown(r, currency)
		if err != nil {
			return err
		}
		switch o.format {
		case "md":
			_, err = io.WriteString(w, md)
		case "term":
			var out string
			if out, err = report.RenderTerminal(md, o.style, 0); err == nil {
				_, err = io.WriteString(w, out)
			}
		case "html":
			var page []byte
			if page, err = report.RenderHTML(md, title); err == nil {
				_, err = w.Write(page)
			}
		default:
			err = fmt.Errorf("unknown format %q", o.format)
		}
		return err
	})
}
