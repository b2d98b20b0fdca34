// Command perpsign derives STARK keys, hashes perpetuals orders and signs
// them, either one operation per invocation or as a local HTTP service.
//
// Usage:
//
//	perpsign derive    -sig 0x...
//	perpsign onboard   -host perpetuals.example -account 0   (key in PERPSIGN_ETH_PRIVATE_KEY)
//	perpsign pubkey    -key 0x...
//	perpsign hash-order -position 1 -base-asset 0x.. -base-amount 100 ... -pub 0x..
//	perpsign order     -side buy -qty 0.5 -price 43000 ... -pub 0x..
//	perpsign sign      -msg 0x... -key 0x...
//	perpsign verify    -msg 0x... -r 0x... -s 0x... -pub 0x...
//	perpsign serve
//	perpsign version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const ethKeyEnv = "PERPSIGN_ETH_PRIVATE_KEY"

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"derive", "derive the STARK key pair from an Ethereum signature", runDerive},
	{"onboard", "sign the account creation message with an Ethereum key and derive the STARK key pair", runOnboard},
	{"pubkey", "print the public key of a STARK private key", runPubKey},
	{"hash-order", "hash an order given in on-chain units", runHashOrder},
	{"order", "build and hash an order from decimal quantity and price", runOrder},
	{"sign", "sign a message hash", runSign},
	{"verify", "verify a signature", runVerify},
	{"serve", "run the local HTTP signing service", runServe},
	{"version", "print build information", runVersion},
}

// errUsage means the usage text has already been printed.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, args[1:], stdout, stderr)
		}
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return nil
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
	usage(stderr)
	return errUsage
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: perpsign <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("perpsign "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	// flag has already reported the problem, or printed help
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return errUsage
	}
	return nil
}

// requireFlags fails with usage when any named string flag is empty.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			fmt.Fprintf(fs.Output(), "-%s is required\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
