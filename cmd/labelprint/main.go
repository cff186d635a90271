package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/AlexStarov/labelprint/config"
	applog "github.com/AlexStarov/labelprint/log"
)

type CLI struct {
	Print  PrintCmd  `cmd:"" help:"Convert a label to ZPL and send it to the printer"`
	Serve  ServeCmd  `cmd:"" help:"Serve the print API"`
	QR     QRCmd     `cmd:"" name:"qr" help:"Write a QR code pointing at the print API"`
	Labels LabelsCmd `cmd:"" help:"List registered label types"`
}

func run(args []string, cfg *config.Config, stdout io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("labelprint"),
		kong.Description("Render, encode and print ZPL labels."),
		kong.Writers(stdout, os.Stderr),
		kong.UsageOnError(),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := applog.New(applog.Config{
		Dir:     cfg.LogDir,
		Name:    "labelprint",
		Level:   cfg.LogLevel,
		Console: stdout,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	return kctx.Run(cfg, logger)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	if err := run(os.Args[1:], cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
