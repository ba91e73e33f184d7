// Command ledgerctl talks to a running coffee ledger server.
//
//	ledgerctl [-addr URL] [-json] <command> [flags] [args]
//
// Commands: state, next, run, set-price, remove, reset, clear-history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/service"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	client service.LedgerServiceClient
	out    io.Writer
	asJSON bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envDefault("LEDGER_ADDR", "http://localhost:8080"), "server base URL")
	asJSON := fs.Bool("json", false, "print raw JSON responses")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ledgerctl [flags] state|next|run|set-price|remove|reset|clear-history [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := &cli{
		client: service.NewLedgerServiceClient(http.DefaultClient, *addr),
		out:    stdout,
		asJSON: *asJSON,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "state":
		return c.state(ctx)
	case "next":
		return c.next(ctx, rest, stderr)
	case "run":
		return c.round(ctx, rest, stderr)
	case "set-price":
		return c.setPrice(ctx, rest)
	case "remove":
		return c.remove(ctx, rest)
	case "reset":
		return c.reset(ctx, rest, stderr)
	case "clear-history":
		return c.clearHistory(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) state(ctx context.Context) error {
	resp, err := c.client.GetState(ctx, connect.NewRequest(&service.GetStateRequest{}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRICE\tBALANCE\tROUNDS PAID\tLAST PAID")
	for _, s := range resp.Msg.Standings {
		last := s.LastPaid
		if last == "" {
			last = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Price, s.Balance, s.RoundsPaid, last)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d rounds in history (%s)\n", len(resp.Msg.History), resp.Msg.SettlementModel)
	return nil
}

// roundFlags parses the flags shared by next and run. Remaining args name people.
func roundFlags(name string, args []string, stderr io.Writer) (people []string, tie string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&tie, "tie", "", "tie strategy: alpha, random, round_robin or least_recent")
	if err := fs.Parse(args); err != nil {
		return nil, "", errUsage
	}
	return splitPeople(fs.Args()), tie, nil
}

func (c *cli) next(ctx context.Context, args []string, stderr io.Writer) error {
	people, tie, err := roundFlags("next", args, stderr)
	if err != nil {
		return err
	}
	resp, err := c.client.PreviewNext(ctx, connect.NewRequest(&service.PreviewNextRequest{People: people, TieStrategy: tie}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	fmt.Fprintf(c.out, "Next payer: %s (%s for %s)\n",
		resp.Msg.NextPayer, resp.Msg.TotalCost, strings.Join(resp.Msg.IncludedPeople, ", "))
	return nil
}

func (c *cli) round(ctx context.Context, args []string, stderr io.Writer) error {
	people, tie, err := roundFlags("run", args, stderr)
	if err != nil {
		return err
	}
	resp, err := c.client.RunRound(ctx, connect.NewRequest(&service.RunRoundRequest{People: people, TieStrategy: tie}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	fmt.Fprintf(c.out, "%s pays %s for %s\n",
		resp.Msg.Payer, resp.Msg.TotalCost, strings.Join(resp.Msg.IncludedPeople, ", "))
	return c.printBalances(resp.Msg.Balances)
}

func (c *cli) setPrice(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set-price NAME PRICE")
	}
	resp, err := c.client.SetPrice(ctx, connect.NewRequest(&service.SetPriceRequest{Name: args[0], Price: args[1]}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	name := strings.TrimSpace(args[0])
	fmt.Fprintf(c.out, "%s now costs %s\n", name, resp.Msg.Prices[name])
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove NAME")
	}
	resp, err := c.client.RemovePerson(ctx, connect.NewRequest(&service.RemovePersonRequest{Name: args[0]}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	if resp.Msg.Removed {
		fmt.Fprintf(c.out, "Removed %s\n", args[0])
	} else {
		fmt.Fprintf(c.out, "%s was not on the roster\n", args[0])
	}
	return nil
}

func (c *cli) reset(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	clearHistory := fs.Bool("clear-history", false, "also clear round history")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	resp, err := c.client.ResetBalances(ctx, connect.NewRequest(&service.ResetBalancesRequest{ClearHistory: *clearHistory}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	fmt.Fprintf(c.out, "Reset %d balances; %d rounds in history\n", len(resp.Msg.Balances), len(resp.Msg.History))
	return nil
}

func (c *cli) clearHistory(ctx context.Context) error {
	resp, err := c.client.ClearHistory(ctx, connect.NewRequest(&service.ClearHistoryRequest{}))
	if err != nil {
		return err
	}
	if c.asJSON {
		return c.printJSON(resp.Msg)
	}
	fmt.Fprintln(c.out, "History cleared")
	return nil
}

func (c *cli) printBalances(balances map[string]money.Money) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBALANCE")
	for _, name := range slices.Sorted(maps.Keys(balances)) {
		fmt.Fprintf(tw, "%s\t%s\n", name, balances[name])
	}
	return tw.Flush()
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// splitPeople accepts names as separate args or comma-separated.
func splitPeople(args []string) []string {
	var people []string
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name != "" {
				people = append(people, name)
			}
		}
	}
	return people
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
