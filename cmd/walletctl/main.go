// Command walletctl manages clients and transactions of a running wallet
// service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/handlers"
	"github.com/rschio/walletledger/internal/sdk/walletapi"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const usage = `usage: walletctl [flags] <command> [args]

commands:
  clients list                          [--surname S] [--name N] [--patronymic P]
  clients get <wallet>
  clients create <surname> <name> [patronymic] [--wallet W] [--balance B]
  clients rename <wallet> <surname> <name> [patronymic]
  clients delete <wallet>
  clients tx <wallet>
  tx list                               [--timestamp T] [--sender W] [--recipient W]
  tx get <guid>
  tx send <sender> <recipient> <amount> [--guid G] [--timestamp T] [--currency C] [--type T]
  tx delete <guid>
`

var errUsage = errors.New("bad usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := NewConfig()
	if err := cfg.LoadDotEnv(os.Getwd); err != nil {
		fmt.Fprintln(os.Stderr, "walletctl: load .env:", err)
		os.Exit(1)
	}
	cfg.LoadEnv(os.Getenv)

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "walletctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, args []string, out io.Writer) error {
	cmd, err := cfg.ParseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(out, usage)
			return nil
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if len(cmd) < 2 {
		return errUsage
	}

	api := walletapi.New(cfg.Addr, walletapi.WithTimeout(cfg.Timeout))
	page := ledger.Page{Limit: cfg.Limit, Offset: cfg.Offset}
	args = cmd[2:]

	switch cmd[0] + " " + cmd[1] {
	case "clients list":
		f := walletapi.ClientFilter{Surname: cfg.Surname, Name: cfg.Name, Patronymic: cfg.Patronymic}
		cs, err := api.ListClients(ctx, f, page)
		if err != nil {
			return err
		}
		return printClients(out, cs...)

	case "clients get":
		if len(args) != 1 {
			return errUsage
		}
		c, err := api.GetClient(ctx, args[0])
		if err != nil {
			return err
		}
		return printClients(out, c)

	case "clients create":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		nc := handlers.NewClientReq{
			WalletNumber: cfg.Wallet,
			Surname:      args[0],
			Name:         args[1],
			Patronymic:   optional(args, 2),
		}
		if cfg.Balance != "" {
			if nc.Balance, err = decimal.NewFromString(cfg.Balance); err != nil {
				return fmt.Errorf("balance: %w", err)
			}
		}
		c, err := api.CreateClient(ctx, nc)
		if err != nil {
			return err
		}
		return printClients(out, c)

	case "clients rename":
		if len(args) < 3 || len(args) > 4 {
			return errUsage
		}
		rc := handlers.ReplaceClientReq{Surname: args[1], Name: args[2], Patronymic: optional(args, 3)}
		c, err := api.ReplaceClient(ctx, args[0], rc)
		if err != nil {
			return err
		}
		return printClients(out, c)

	case "clients delete":
		if len(args) != 1 {
			return errUsage
		}
		c, err := api.DeleteClient(ctx, args[0])
		if err != nil {
			return err
		}
		return printClients(out, c)

	case "clients tx":
		if len(args) != 1 {
			return errUsage
		}
		ts, err := api.ClientTransactions(ctx, args[0], page)
		if err != nil {
			return err
		}
		return printTransactions(out, ts...)

	case "tx list":
		f := walletapi.TransactionFilter{Timestamp: cfg.Timestamp, SenderWallet: cfg.Sender, RecipientWallet: cfg.Recipient}
		ts, err := api.ListTransactions(ctx, f, page)
		if err != nil {
			return err
		}
		return printTransactions(out, ts...)

	case "tx get":
		if len(args) != 1 {
			return errUsage
		}
		d, err := api.GetTransaction(ctx, args[0])
		if err != nil {
			return err
		}
		if err := printTransactions(out, d.Transaction); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return printClients(out, d.Sender, d.Recipient)

	case "tx send":
		if len(args) != 3 {
			return errUsage
		}
		amount, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		ts := cfg.Timestamp
		if ts == "" {
			ts = time.Now().UTC().Format(time.DateTime)
		}
		nt := handlers.NewTransactionReq{
			GUID:            cfg.GUID,
			Timestamp:       ts,
			SenderWallet:    args[0],
			RecipientWallet: args[1],
			Amount:          amount,
			CurrencyType:    cfg.CurrencyType,
			TransactionType: cfg.TransactionType,
		}
		t, err := api.CreateTransaction(ctx, nt)
		if err != nil {
			return err
		}
		return printTransactions(out, t)

	case "tx delete":
		if len(args) != 1 {
			return errUsage
		}
		t, err := api.DeleteTransaction(ctx, args[0])
		if err != nil {
			return err
		}
		return printTransactions(out, t)
	}

	return errUsage
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func printClients(out io.Writer, cs ...handlers.Client) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WALLET\tCLIENT\tBALANCE")
	for _, c := range cs {
		full := strings.TrimSpace(strings.Join([]string{c.Surname, c.Name, c.Patronymic}, " "))
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.WalletNumber, full, c.Balance)
	}
	return tw.Flush()
}

func printTransactions(out io.Writer, ts ...handlers.Transaction) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GUID\tTIME STAMP\tSENDER\tRECIPIENT\tAMOUNT\tCURRENCY\tTYPE")
	for _, t := range ts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.GUID, t.Timestamp, t.SenderWallet, t.RecipientWallet, t.Amount, t.CurrencyType, t.TransactionType)
	}
	return tw.Flush()
}
