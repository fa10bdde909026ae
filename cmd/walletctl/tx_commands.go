package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

func txListCommand(open envOpener) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Usage:   "List recorded transactions, newest first",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chain", Aliases: []string{"c"}, Usage: "ethereum or solana"},
			&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "Sender or recipient"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "pending, confirmed or failed"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
			&cli.IntFlag{Name: "offset"},
		},
		Action: func(c *cli.Context) error {
			filter := model.TransactionFilter{
				Address: c.String("address"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			}
			if raw := c.String("chain"); raw != "" {
				chain, err := model.ParseChain(raw)
				if err != nil {
					return err
				}
				filter.Chain = chain
			}
			if raw := c.String("status"); raw != "" {
				status := model.TransactionStatus(raw)
				if !status.IsValid() {
					return fmt.Errorf("unknown status %q", raw)
				}
				filter.Status = status
			}

			e, err := open(c)
			if err != nil {
				return err
			}
			defer e.close()

			records, total, err := e.controller.ListTransactions(c.Context, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			if c.Bool("json") {
				return outputJSON(c, map[string]interface{}{
					"total":        total,
					"transactions": records,
				})
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHAIN\tTX HASH\tSTATUS\tAMOUNT\tFROM\tTO\tTIME")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
					r.Chain, r.TxHash, r.Status, r.Amount, r.Currency,
					r.FromAddress, r.ToAddress, r.Timestamp.Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "\nShowing %d of %d transactions\n", len(records), total)
			return nil
		},
	}
}
