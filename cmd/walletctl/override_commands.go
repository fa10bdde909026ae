package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dwarvesf/walletpay-backend/internal/controller"
	"github.com/dwarvesf/walletpay-backend/internal/model"
)

const defaultOperator = "walletctl"

func overrideListCommand(open envOpener) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Usage:   "List overrides for every chain",
		Aliases: []string{"ls"},
		Action: func(c *cli.Context) error {
			e, err := open(c)
			if err != nil {
				return err
			}
			defer e.close()

			overrides, err := e.controller.ListOverrides(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list overrides: %w", err)
			}
			if c.Bool("json") {
				return outputJSON(c, overrides)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHAIN\tENABLED\tADDRESS\tUPDATED BY\tUPDATED")
			for _, o := range overrides {
				fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", o.Chain, o.Enabled, o.Address, o.UpdatedBy, o.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func overrideGetCommand(open envOpener) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show the override for one chain",
		ArgsUsage: "<chain>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: chain")
			}
			chain, err := model.ParseChain(c.Args().First())
			if err != nil {
				return err
			}

			e, err := open(c)
			if err != nil {
				return err
			}
			defer e.close()

			override, err := e.controller.GetOverride(c.Context, chain)
			if err != nil {
				return fmt.Errorf("failed to get override: %w", err)
			}
			return printOverride(c, override)
		},
	}
}

func overrideSetCommand(open envOpener) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the override address and switch it on or off",
		ArgsUsage: "<chain>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "Recipient that replaces the requested one while enabled",
			},
			&cli.BoolFlag{
				Name:  "enabled",
				Usage: "Turn the override on (--enabled=false turns it off)",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "updated-by",
				Usage: "Operator name stored with the change",
				Value: defaultOperator,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: chain")
			}
			chain, err := model.ParseChain(c.Args().First())
			if err != nil {
				return err
			}

			e, err := open(c)
			if err != nil {
				return err
			}
			defer e.close()

			override, err := e.controller.SetOverride(c.Context, controller.OverrideRequest{
				Chain:     chain,
				Address:   c.String("address"),
				Enabled:   c.Bool("enabled"),
				UpdatedBy: c.String("updated-by"),
			})
			if err != nil {
				return fmt.Errorf("failed to set override: %w", err)
			}
			return printOverride(c, override)
		},
	}
}

func printOverride(c *cli.Context, o *model.WalletOverride) error {
	if c.Bool("json") {
		return outputJSON(c, o)
	}
	out := c.App.Writer
	fmt.Fprintf(out, "Chain:      %s\n", o.Chain)
	fmt.Fprintf(out, "Enabled:    %t\n", o.Enabled)
	fmt.Fprintf(out, "Address:    %s\n", o.Address)
	if o.UpdatedBy != "" {
		fmt.Fprintf(out, "Updated by: %s\n", o.UpdatedBy)
	}
	return nil
}
