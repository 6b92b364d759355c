package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/kobzarvs/qnote/internal/app"
	"github.com/kobzarvs/qnote/internal/logger"
)

func main() {
	debug := flag.Bool("debug", false, "write debug output to the log file")
	flag.Parse()
	args := flag.Args()

	if err := logger.Init(*debug); err != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("qnote: logging disabled:"), err)
	}
	err := app.New(args).Run()
	err = multierr.Append(err, logger.Close())
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("qnote:"), err)
		os.Exit(1)
	}
}
