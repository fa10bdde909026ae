package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

func tokensListCommand(open envOpener) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Usage:   "List tokens known for a network, custom tokens included",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chain", Aliases: []string{"c"}, Usage: "ethereum or solana", Required: true},
			&cli.StringFlag{Name: "chain-ref", Aliases: []string{"r"}, Usage: "EVM chain id or Solana cluster", Required: true},
		},
		Action: func(c *cli.Context) error {
			chain, err := model.ParseChain(c.String("chain"))
			if err != nil {
				return err
			}

			e, err := open(c)
			if err != nil {
				return err
			}
			defer e.close()

			tokens, err := e.tokens.Tokens(chain, c.String("chain-ref"))
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			if c.Bool("json") {
				return outputJSON(c, tokens)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tNAME\tDECIMALS\tADDRESS\tKIND")
			for _, t := range tokens {
				kind := "builtin"
				switch {
				case t.IsNative:
					kind = "native"
				case t.Custom:
					kind = "custom"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", t.Symbol, t.Name, t.Decimals, t.Address, kind)
			}
			return w.Flush()
		},
	}
}
