package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/importer"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func synthMark(synth bool) string {
	if synth {
		return "(from activity)"
	}
	return ""
}

func newAmortizationCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amortization",
		Short: "Spread prepaid expenses over monthly periods",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List amortization items, saved and derived from prepaid accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			views := tracker.AmortizationViews(d.Accounts, d.JournalEntries, d.AmortizationItems, a.store.Config().Trackers)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDESCRIPTION\tTOTAL\tPERIODS\tMONTHLY\tBALANCE\t")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n", v.Item.ID, v.Item.Description,
					v.Item.TotalAmount.StringFixed(2), v.Item.Periods,
					tracker.MonthlyAmount(v.Item).StringFixed(2), v.Balance.StringFixed(2), synthMark(v.Synthesized))
			}
			return w.Flush()
		},
	}

	var item model.AmortizationItem
	var total string
	add := &cobra.Command{
		Use:   "add",
		Short: "Save an amortization item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if item.TotalAmount, err = parseAmount(total); err != nil {
				return err
			}
			c := &store.SaveAmortization{Item: item}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s per period)\n", c.Result.ID, tracker.MonthlyAmount(c.Result).StringFixed(2))
			return nil
		},
	}
	add.Flags().StringVar(&item.ID, "id", "", "ID of an item to replace")
	add.Flags().StringVar(&item.Description, "description", "", "description")
	add.Flags().StringVar(&total, "total", "", "total amount")
	add.Flags().IntVar(&item.Periods, "periods", 12, "number of monthly periods")
	add.Flags().StringVar(&item.StartDate, "start", "", "first period date (YYYY-MM-DD)")
	add.Flags().StringVar(&item.DebitAccountID, "debit", "", "expense account")
	add.Flags().StringVar(&item.CreditAccountID, "credit", "", "prepaid asset account")
	_ = add.MarkFlagRequired("total")
	_ = add.MarkFlagRequired("start")
	_ = add.MarkFlagRequired("credit")

	var date string
	gen := &cobra.Command{
		Use:   "generate <id>",
		Short: "Post one period's amortization entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.GenerateAmortization{ItemID: args[0], Date: date}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.Result.ID, c.Result.TotalDebit().StringFixed(2))
			return nil
		},
	}
	gen.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD)")
	_ = gen.MarkFlagRequired("date")

	schedule := &cobra.Command{
		Use:   "schedule <id>",
		Short: "Show every period of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			views := tracker.AmortizationViews(d.Accounts, d.JournalEntries, d.AmortizationItems, a.store.Config().Trackers)
			for _, v := range views {
				if v.Item.ID != args[0] {
					continue
				}
				periods, err := tracker.AmortizationSchedule(v.Item)
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "PERIOD\tDATE\tAMOUNT\tCUMULATIVE\tREMAINING")
				for _, p := range periods {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.Period, p.Date,
						p.Amount.StringFixed(2), p.Cumulative.StringFixed(2), p.Remaining.StringFixed(2))
				}
				return w.Flush()
			}
			return fmt.Errorf("%w: %s", tracker.ErrNotFound, args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved amortization item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeleteAmortization{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add, gen, schedule, del)
	return cmd
}

func newPrepaymentCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepayment",
		Short: "Track prepayments until they are settled",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List prepayment items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			views := tracker.PrepaymentViews(d.Accounts, d.JournalEntries, d.PrepaymentItems, a.store.Config().Trackers)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tACCOUNT\tSTATUS\tBALANCE\t")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", v.Item.ID, v.Item.Date, v.Item.Description,
					v.Item.Amount.StringFixed(2), v.Item.AssetAccountID, v.Item.Status,
					v.Balance.StringFixed(2), synthMark(v.Synthesized))
			}
			return w.Flush()
		},
	}

	var item model.PrepaymentItem
	var amt string
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a prepayment item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if item.Amount, err = parseAmount(amt); err != nil {
				return err
			}
			c := &store.SavePrepayment{Item: item}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", c.Result.ID)
			return nil
		},
	}
	add.Flags().StringVar(&item.ID, "id", "", "ID of an item to replace")
	add.Flags().StringVar(&item.Date, "date", "", "date (YYYY-MM-DD)")
	add.Flags().StringVar(&item.Description, "description", "", "description")
	add.Flags().StringVar(&amt, "amount", "", "amount")
	add.Flags().StringVar(&item.AssetAccountID, "account", "", "prepayment asset account")
	_ = add.MarkFlagRequired("account")

	settle := func(event, short string) *cobra.Command {
		return &cobra.Command{
			Use:   event + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.do(cmd.Context(), &store.SettlePrepayment{ID: args[0], Event: event})
			},
		}
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved prepayment item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeletePrepayment{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add,
		settle(tracker.EventSettle, "Mark a prepayment settled"),
		settle(tracker.EventReopen, "Mark a prepayment unsettled"),
		del)
	return cmd
}

func newReceivedCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "received",
		Short: "Track payments received in advance",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List received-payment items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			views := tracker.ReceivedPaymentViews(d.Accounts, d.JournalEntries, d.ReceivedPaymentItems, a.store.Config().Trackers)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tACCOUNT\tSTATUS\tBALANCE\t")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", v.Item.ID, v.Item.Date, v.Item.Description,
					v.Item.Amount.StringFixed(2), v.Item.LiabilityAccountID, v.Item.Status,
					v.Balance.StringFixed(2), synthMark(v.Synthesized))
			}
			return w.Flush()
		},
	}

	var item model.ReceivedPaymentItem
	var amt string
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a received-payment item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if item.Amount, err = parseAmount(amt); err != nil {
				return err
			}
			c := &store.SaveReceivedPayment{Item: item}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", c.Result.ID)
			return nil
		},
	}
	add.Flags().StringVar(&item.ID, "id", "", "ID of an item to replace")
	add.Flags().StringVar(&item.Date, "date", "", "date (YYYY-MM-DD)")
	add.Flags().StringVar(&item.Description, "description", "", "description")
	add.Flags().StringVar(&amt, "amount", "", "amount")
	add.Flags().StringVar(&item.LiabilityAccountID, "account", "", "received-in-advance liability account")
	_ = add.MarkFlagRequired("account")

	settle := func(event, short string) *cobra.Command {
		return &cobra.Command{
			Use:   event + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.do(cmd.Context(), &store.SettleReceivedPayment{ID: args[0], Event: event})
			},
		}
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved received-payment item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeleteReceivedPayment{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add,
		settle(tracker.EventSettle, "Mark a received payment settled"),
		settle(tracker.EventReopen, "Mark a received payment unsettled"),
		del)
	return cmd
}

func newCardCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Collect credit-card charges into statement entries",
	}

	list := &cobra.Command{
		Use:   "list [ledger-id]",
		Short: "List card ledgers, or the pending charges of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			if len(args) == 0 {
				fmt.Fprintln(w, "ID\tNAME\tACCOUNT\tPENDING\tTOTAL")
				for _, l := range d.CreditCardLedgers {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", l.ID, l.Name, l.LiabilityAccountID, len(l.Transactions), l.Total().StringFixed(2))
				}
				return w.Flush()
			}
			for _, l := range d.CreditCardLedgers {
				if l.ID != args[0] {
					continue
				}
				fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tAMOUNT\tACCOUNT")
				for _, t := range l.Transactions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Description, t.Amount.StringFixed(2), t.AccountID)
				}
				return w.Flush()
			}
			return fmt.Errorf("%w: card ledger %s", store.ErrNotFound, args[0])
		},
	}

	var ledger model.CreditCardLedger
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a card ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.SaveCardLedger{Ledger: ledger}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved card %s (%s)\n", c.Result.Name, c.Result.ID)
			return nil
		},
	}
	add.Flags().StringVar(&ledger.ID, "id", "", "ID of a ledger to rename")
	add.Flags().StringVar(&ledger.Name, "name", "", "card name")
	add.Flags().StringVar(&ledger.LiabilityAccountID, "account", "", "credit-card liability account (241x)")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("account")

	var txn model.CreditCardTransaction
	var txnAmount string
	txnAdd := &cobra.Command{
		Use:   "txn-add <ledger-id>",
		Short: "Add a pending charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if txn.Amount, err = parseAmount(txnAmount); err != nil {
				return err
			}
			c := &store.SaveCardTransactions{LedgerID: args[0], Transactions: []model.CreditCardTransaction{txn}}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Added 1 charge")
			return nil
		},
	}
	txnAdd.Flags().StringVar(&txn.Date, "date", "", "charge date (YYYY-MM-DD)")
	txnAdd.Flags().StringVar(&txn.Description, "description", "", "description")
	txnAdd.Flags().StringVar(&txnAmount, "amount", "", "amount")
	txnAdd.Flags().StringVar(&txn.AccountID, "account", "", "expense account")
	_ = txnAdd.MarkFlagRequired("amount")

	txnDel := &cobra.Command{
		Use:   "txn-delete <ledger-id> <txn-id>",
		Short: "Remove a pending charge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeleteCardTransaction{LedgerID: args[0], ID: args[1]})
		},
	}

	var date string
	gen := &cobra.Command{
		Use:   "generate <ledger-id>",
		Short: "Post the pending charges as one statement entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.GenerateCardEntry{LedgerID: args[0], Date: date}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.Result.ID, c.Result.TotalCredit().StringFixed(2))
			return nil
		},
	}
	gen.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD)")
	_ = gen.MarkFlagRequired("date")

	del := &cobra.Command{
		Use:   "delete <ledger-id>",
		Short: "Delete a card ledger and its pending charges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeleteCardLedger{ID: args[0]})
		},
	}

	cmd.AddCommand(list, add, txnAdd, txnDel, newCardImportCommand(a), gen, del)
	return cmd
}

func newCardImportCommand(a *app) *cobra.Command {
	var format, account string
	var paste bool
	cmd := &cobra.Command{
		Use:   "import <ledger-id> [file...]",
		Short: "Import card charges from statement files or pasted text",
		Long: `Import card charges into a ledger. Files are parsed with --format
(simple: date,description,amount; chase: Chase card CSV export). Without
files, every CSV in <dir>/import/ is imported and moved to
import/processed/. With --paste, stdin is read as
"date,description,amount[,accountId]" lines.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledgerID := args[0]
			out := cmd.OutOrStdout()

			if paste {
				reg, err := a.registry(cmd)
				if err != nil {
					return err
				}
				text, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				txs, lerrs := tracker.ParseCardImport(string(text), reg)
				if len(lerrs) > 0 {
					msgs := make([]string, len(lerrs))
					for i, e := range lerrs {
						msgs[i] = e.Error()
					}
					return fmt.Errorf("%w: %s", tracker.ErrInvalidItem, strings.Join(msgs, "; "))
				}
				c := &store.SaveCardTransactions{LedgerID: ledgerID, Transactions: txs}
				if err := a.do(cmd.Context(), c); err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %d charges\n", c.Added)
				return nil
			}

			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(importer.DefaultRegistry().Formats(), ", "))
			}

			paths := args[1:]
			fromInbox := len(paths) == 0
			if fromInbox {
				files, err := importer.Scan(a.dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				fmt.Fprintln(out, "No statement files to import")
				return nil
			}

			assign := func(string) string { return account }
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				rows, err := parser.Parse(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				txs, skipped := importer.ToCardTransactions(rows, assign)
				c := &store.SaveCardTransactions{LedgerID: ledgerID, Transactions: txs}
				if err := a.do(cmd.Context(), c); err != nil {
					return err
				}
				if fromInbox {
					if err := importer.MarkProcessed(a.dir, filepath.Base(path)); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "%s: added %d charges, skipped %d credits\n", filepath.Base(path), c.Added, skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "simple", "statement format: simple or chase")
	cmd.Flags().StringVar(&account, "account", "", "expense account assigned to imported charges")
	cmd.Flags().BoolVar(&paste, "paste", false, "read pasted charges from stdin")
	return cmd
}

func newSalaryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salary",
		Short: "Post salary vouchers from a template",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the salary template rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ROW\tACCOUNT\tMEMO")
			for i, l := range d.SalaryLedger {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i, l.AccountID, l.Memo)
			}
			return w.Flush()
		},
	}

	var date string
	var rows []string
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Post a salary voucher",
		Long: `Post a salary voucher. Each --row gives "index=debit,credit" for one
template row; rows left out are not posted.

Example:
  gracebooks salary generate --date 2024-03-05 --row 9=,50000 --row 6=50000,`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parseSalaryRows(rows)
			if err != nil {
				return err
			}
			c := &store.GenerateSalary{Date: date, Amounts: amounts}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", c.Result.ID)
			return nil
		},
	}
	gen.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD)")
	gen.Flags().StringArrayVar(&rows, "row", nil, "template row amounts index=debit,credit (repeatable)")
	_ = gen.MarkFlagRequired("date")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default salary template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.SetSalaryTemplate{})
		},
	}

	cmd.AddCommand(show, gen, reset)
	return cmd
}

func parseSalaryRows(rows []string) (map[int]tracker.SalaryAmount, error) {
	amounts := make(map[int]tracker.SalaryAmount, len(rows))
	for _, r := range rows {
		idx, vals, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid row %q (want index=debit,credit)", r)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("invalid row index %q", idx)
		}
		debitS, creditS, _ := strings.Cut(vals, ",")
		debit, err := parseAmount(debitS)
		if err != nil {
			return nil, err
		}
		credit, err := parseAmount(creditS)
		if err != nil {
			return nil, err
		}
		amounts[i] = tracker.SalaryAmount{Debit: debit, Credit: credit}
	}
	return amounts, nil
}
