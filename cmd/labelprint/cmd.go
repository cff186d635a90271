package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/AlexStarov/labelprint/config"
	"github.com/AlexStarov/labelprint/label"
	applog "github.com/AlexStarov/labelprint/log"
	"github.com/AlexStarov/labelprint/pipeline"
	"github.com/AlexStarov/labelprint/printer"
	"github.com/AlexStarov/labelprint/server"
	"github.com/AlexStarov/labelprint/zpl"
)

type PrintCmd struct {
	Type      string        `help:"Registered label type" default:"location_label"`
	PNG       string        `name:"png" help:"Image to print. If omitted, the label is rendered or read from the output dir" type:"existingfile"`
	OutputDir string        `help:"Folder for rendered images and ZPL copies. Defaults to OUTPUT_DIR"`
	PrinterIP string        `name:"printer-ip" help:"Printer address. Defaults to PRINTER_IP"`
	Port      int           `help:"Printer port. Defaults to PRINTER_PORT"`
	Timeout   time.Duration `help:"Delivery timeout. Defaults to PRINTER_TIMEOUT"`
	NoPrint   bool          `help:"Only write ZPL, do not send it"`
	Codec     string        `help:"Graphic field codec, z64 or acs. Defaults to CODEC"`
}

func (c *PrintCmd) Validate(kctx *kong.Context) error {
	if _, err := label.Lookup(c.Type); err != nil {
		return err
	}
	if c.Codec != "" && c.Codec != "z64" && c.Codec != "acs" {
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// apply overrides cfg with the flags that were given.
func (c *PrintCmd) apply(cfg config.Config) config.Config {
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	if c.PrinterIP != "" {
		cfg.Printer.Type = printer.TypeNetwork
		cfg.Printer.Host = c.PrinterIP
	}
	if c.Port != 0 {
		cfg.Printer.Port = c.Port
	}
	if c.Timeout > 0 {
		cfg.Printer.Timeout = c.Timeout
	}
	if c.Codec != "" {
		cfg.Codec = c.Codec
	}
	return cfg
}

func (c *PrintCmd) Run(base *config.Config, logger *applog.Logger, stdout io.Writer) error {
	cfg := c.apply(*base)

	var src label.Renderer = source(&cfg)
	if c.PNG != "" {
		src = label.File{Path: c.PNG}
	}
	p, err := newPipeline(&cfg, src, logger, !c.NoPrint)
	if err != nil {
		return err
	}
	// The CLI always keeps the ZPL next to the image.
	p.DumpDir = cfg.OutputDir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *pipeline.Result
	if c.NoPrint {
		res, err = p.Convert(ctx, c.Type)
	} else {
		res, err = p.Run(ctx, c.Type)
	}
	if res != nil {
		if res.DumpErr != nil {
			logger.Warn("Failed to save ZPL copy", zap.Error(res.DumpErr))
		} else {
			fmt.Fprintf(stdout, "Wrote ZPL -> %s\n", res.ZPLPath)
		}
	}
	if err != nil {
		return err
	}
	if !c.NoPrint {
		fmt.Fprintf(stdout, "Sent %s (%dx%d, %d bytes) to %s\n", res.LabelType, res.Width, res.Height, res.Length, target(&cfg))
	}
	return nil
}

type ServeCmd struct{}

func (c *ServeCmd) Run(cfg *config.Config, logger *applog.Logger) error {
	p, err := newPipeline(cfg, source(cfg), logger, true)
	if err != nil {
		return err
	}
	srv := server.New(p, server.Config{
		Address:   cfg.Addr(),
		MaxPrints: cfg.MaxPrints,
		PagesDir:  cfg.PagesDir,
	}, logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.StartAsync(); err != nil {
		return err
	}
	logger.Info("Printing to", zap.String("printer", target(cfg)), zap.String("codec", cfg.Codec))
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), cfg.Printer.Timeout)
	defer cancel()
	return srv.Stop(shutdown)
}

type QRCmd struct {
	URL  string `name:"url" help:"Encoded URL. Defaults to http://<lan-ip>:<PORT>"`
	Out  string `help:"PNG file to write. Defaults to <OUTPUT_DIR>/qr.png"`
	Size int    `help:"Image size in pixels" default:"256"`
}

func (c *QRCmd) Run(cfg *config.Config, logger *applog.Logger, stdout io.Writer) error {
	url := c.URL
	if url == "" {
		url = fmt.Sprintf("http://%s:%d", label.LocalIP(), cfg.Port)
	}
	out := c.Out
	if out == "" {
		out = filepath.Join(cfg.OutputDir, "qr.png")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}

	if err := (label.QR{Content: url, Size: c.Size}).WriteFile(out); err != nil {
		return err
	}
	logger.Debug("Wrote QR code", zap.String("url", url), zap.String("path", out))
	fmt.Fprintf(stdout, "QR for %s -> %s\n", url, out)
	return nil
}

type LabelsCmd struct{}

func (c *LabelsCmd) Run(stdout io.Writer) error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tCLASS\tTITLE")
	for _, t := range label.Types() {
		fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\n", t.Name, t.Width, t.Height, t.Class, t.Title)
	}
	return w.Flush()
}

// source picks the bitmap source: the external renderer when configured,
// otherwise images already rendered into the output dir.
func source(cfg *config.Config) label.Renderer {
	if len(cfg.RenderCommand) > 0 {
		return label.Command{
			Argv:     cfg.RenderCommand,
			PagesDir: cfg.PagesDir,
			OutDir:   cfg.OutputDir,
			Fit:      true,
		}
	}
	return label.Dir{Dir: cfg.OutputDir, Fit: true}
}

func newPipeline(cfg *config.Config, src label.Renderer, logger *applog.Logger, deliver bool) (*pipeline.Pipeline, error) {
	enc, err := zpl.NewEncoder(cfg.Codec)
	if err != nil {
		return nil, err
	}
	p := &pipeline.Pipeline{Source: src, Encoder: enc}
	if cfg.DumpZPL {
		p.DumpDir = cfg.OutputDir
	}
	if !deliver {
		return p, nil
	}

	d, err := printer.New(cfg.Printer)
	if err != nil {
		return nil, err
	}
	if n, ok := d.(*printer.Network); ok {
		n.OnState = func(s printer.State) {
			logger.Debug("Printer connection", zap.String("addr", n.Addr()), zap.Stringer("state", s))
		}
	}
	p.Printer = d
	return p, nil
}

func target(cfg *config.Config) string {
	switch cfg.Printer.Type {
	case printer.TypeSerial:
		return cfg.Printer.SerialPort
	case printer.TypeUSB:
		return fmt.Sprintf("usb %04x:%04x", cfg.Printer.VendorID, cfg.Printer.ProductID)
	default:
		return fmt.Sprintf("%s:%d", cfg.Printer.Host, cfg.Printer.Port)
	}
}
