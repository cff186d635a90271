// Package config reads operator settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/AlexStarov/labelprint/label"
	"github.com/AlexStarov/labelprint/printer"
)

// Config holds everything the binaries need.
type Config struct {
	Printer printer.Config

	Port          int
	OutputDir     string
	PagesDir      string
	RenderCommand []string
	Codec         string
	MaxPrints     int
	DumpZPL       bool

	LogDir   string
	LogLevel string
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func defaults(v *viper.Viper) {
	v.SetDefault("PRINTER_TYPE", string(printer.TypeNetwork))
	v.SetDefault("PRINTER_IP", "10.10.200.138")
	v.SetDefault("PRINTER_PORT", printer.DefaultPort)
	v.SetDefault("PRINTER_TIMEOUT", printer.DefaultTimeout.String())
	v.SetDefault("SERIAL_PORT", "")
	v.SetDefault("SERIAL_BAUD", 9600)
	v.SetDefault("USB_VID", "0")
	v.SetDefault("USB_PID", "0")
	v.SetDefault("PORT", 3000)
	v.SetDefault("OUTPUT_DIR", "output")
	v.SetDefault("PAGES_DIR", "src/pages")
	v.SetDefault("RENDER_COMMAND", "")
	v.SetDefault("CODEC", "z64")
	v.SetDefault("MAX_CONCURRENT_PRINTS", 1)
	v.SetDefault("DUMP_ZPL", true)
	v.SetDefault("LOG_DIR", "log")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads envFiles (".env" when none are given; missing files are
// ignored), then the process environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	vid, err := parseID(v.GetString("USB_VID"))
	if err != nil {
		return nil, fmt.Errorf("invalid USB_VID: %w", err)
	}
	pid, err := parseID(v.GetString("USB_PID"))
	if err != nil {
		return nil, fmt.Errorf("invalid USB_PID: %w", err)
	}
	timeout, err := time.ParseDuration(v.GetString("PRINTER_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRINTER_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Printer: printer.Config{
			Type:       printer.Type(strings.ToLower(v.GetString("PRINTER_TYPE"))),
			Host:       v.GetString("PRINTER_IP"),
			Port:       v.GetInt("PRINTER_PORT"),
			SerialPort: v.GetString("SERIAL_PORT"),
			BaudRate:   v.GetInt("SERIAL_BAUD"),
			VendorID:   vid,
			ProductID:  pid,
			Timeout:    timeout,
		},
		Port:          v.GetInt("PORT"),
		OutputDir:     v.GetString("OUTPUT_DIR"),
		PagesDir:      v.GetString("PAGES_DIR"),
		RenderCommand: label.ParseArgv(v.GetString("RENDER_COMMAND")),
		Codec:         strings.ToLower(v.GetString("CODEC")),
		MaxPrints:     v.GetInt("MAX_CONCURRENT_PRINTS"),
		DumpZPL:       v.GetBool("DUMP_ZPL"),
		LogDir:        v.GetString("LOG_DIR"),
		LogLevel:      strings.ToLower(v.GetString("LOG_LEVEL")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Printer.Type {
	case printer.TypeNetwork, printer.TypeSerial, printer.TypeUSB:
	default:
		return fmt.Errorf("invalid PRINTER_TYPE %q", c.Printer.Type)
	}
	if c.Printer.Port < 1 || c.Printer.Port > 65535 {
		return fmt.Errorf("invalid PRINTER_PORT %d", c.Printer.Port)
	}
	if c.Printer.Timeout <= 0 {
		return fmt.Errorf("invalid PRINTER_TIMEOUT %s", c.Printer.Timeout)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Codec != "z64" && c.Codec != "acs" {
		return fmt.Errorf("invalid CODEC %q", c.Codec)
	}
	if c.MaxPrints < 1 {
		return fmt.Errorf("invalid MAX_CONCURRENT_PRINTS %d", c.MaxPrints)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

func parseID(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
