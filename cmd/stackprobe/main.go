// Command stackprobe attaches to a running VM process and streams
// folded-stack samples of its threads to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := CLI{}

	parser, err := kong.New(&cli,
		kong.Name("stackprobe"),
		kong.Description("Sample stack traces out of a running VM process without stopping it."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
		kong.Vars(envDefaults()),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		return exitUsage
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		return exitUsage
	}

	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return exitCodeFor(err)
	}

	return exitOK
}
