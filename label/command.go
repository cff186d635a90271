package label

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	imgInternal "github.com/AlexStarov/labelprint/image"
)

// Command renders layouts by running an external HTML renderer, for example
//
//	chromium --headless --window-size={width},{height} --screenshot={out} file://{html}
//
// Placeholders {html}, {width}, {height} and {out} are substituted in every
// argument. The renderer must write an image to {out}.
type Command struct {
	Argv     []string
	PagesDir string
	OutDir   string
	Fit      bool
}

// ParseArgv splits a renderer command line on spaces. Quoting is not
// supported.
func ParseArgv(s string) []string {
	return strings.Fields(s)
}

func (c Command) Render(ctx context.Context, t Type) (imgInternal.Bitmap, error) {
	if len(c.Argv) == 0 {
		return imgInternal.Bitmap{}, errors.New("no renderer command configured")
	}
	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return imgInternal.Bitmap{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	html, err := filepath.Abs(filepath.Join(c.PagesDir, t.Page))
	if err != nil {
		return imgInternal.Bitmap{}, err
	}
	out, err := filepath.Abs(filepath.Join(c.OutDir, t.Name+".png"))
	if err != nil {
		return imgInternal.Bitmap{}, err
	}
	r := strings.NewReplacer(
		"{html}", filepath.ToSlash(html),
		"{width}", strconv.Itoa(t.Width),
		"{height}", strconv.Itoa(t.Height),
		"{out}", out,
	)
	argv := make([]string, len(c.Argv))
	for i, a := range c.Argv {
		argv[i] = r.Replace(a)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return imgInternal.Bitmap{}, fmt.Errorf("renderer %s: %w", argv[0], err)
		}
		return imgInternal.Bitmap{}, fmt.Errorf("renderer %s: %w: %s", argv[0], err, msg)
	}

	f := File{Path: out}
	if c.Fit {
		f.MaxWidth = t.Width
	}
	return f.Render(ctx, t)
}
