// Package pipeline runs a print job: render, dither, pack, encode, frame and
// deliver. It never logs; every outcome is returned to the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"

	imgInternal "github.com/AlexStarov/labelprint/image"
	"github.com/AlexStarov/labelprint/label"
	"github.com/AlexStarov/labelprint/printer"
	"github.com/AlexStarov/labelprint/zpl"
)

// Pipeline holds the collaborators shared by all jobs. It has no mutable
// state, so one Pipeline may run many jobs concurrently.
type Pipeline struct {
	Source  label.Renderer
	Encoder zpl.Encoder
	Printer printer.Deliverer

	// DumpDir, when set, receives a copy of every command as <label>.zpl.
	DumpDir string
}

// Job is one print request. It lives for a single pipeline run.
type Job struct {
	ID      string
	Type    label.Type
	Bitmap  imgInternal.Bitmap
	Payload zpl.Payload
	Command string
}

// Result summarises a converted or printed job.
type Result struct {
	JobID     string `json:"jobId"`
	LabelType string `json:"labelType"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Length    int    `json:"length"`
	RowLen    int    `json:"rowlen"`
	ZPLPath   string `json:"zplPath,omitempty"`
	Command   string `json:"-"`

	// DumpErr reports a failure to write the diagnostic copy. The job itself
	// does not fail because of it.
	DumpErr error `json:"-"`
}

// Compose turns a bitmap into a framed ZPL command.
func Compose(b imgInternal.Bitmap, enc zpl.Encoder) (string, zpl.Payload, error) {
	mono, err := imgInternal.Reduce(b)
	if err != nil {
		return "", zpl.Payload{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	raster := imgInternal.Pack(mono)

	if enc == nil {
		enc = zpl.Z64{}
	}
	payload, err := enc.Encode(raster)
	if err != nil {
		return "", zpl.Payload{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	if err := payload.Validate(raster); err != nil {
		return "", zpl.Payload{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return zpl.Frame(payload), payload, nil
}

// Convert renders and encodes the label called name without printing it.
func (p *Pipeline) Convert(ctx context.Context, name string) (*Result, error) {
	job, err := p.prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.result(job), nil
}

// Run converts the label called name and delivers it to the printer.
func (p *Pipeline) Run(ctx context.Context, name string) (*Result, error) {
	job, err := p.prepare(ctx, name)
	if err != nil {
		return nil, err
	}
	res := p.result(job)

	if p.Printer == nil {
		return res, job.fail(StageDeliver, ErrDeliver, fmt.Errorf("no printer configured"))
	}
	if err := p.Printer.Deliver(ctx, []byte(job.Command)); err != nil {
		return res, job.fail(StageDeliver, ErrDeliver, err)
	}
	return res, nil
}

func (p *Pipeline) prepare(ctx context.Context, name string) (*Job, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job ID: %w", err)
	}
	job := &Job{ID: id, Type: label.Type{Name: name}}

	t, err := label.Lookup(name)
	if err != nil {
		return nil, job.fail(StageLookup, nil, err)
	}
	job.Type = t
	if t.Class != label.ClassLabel {
		return nil, job.fail(StageLookup, nil, ErrDocumentLabel)
	}

	if p.Source == nil {
		return nil, job.fail(StageRender, ErrRender, fmt.Errorf("no bitmap source configured"))
	}
	b, err := p.Source.Render(ctx, t)
	if err != nil {
		return nil, job.fail(StageRender, ErrRender, err)
	}
	if err := b.Validate(); err != nil {
		return nil, job.fail(StageRender, ErrRender, err)
	}
	job.Bitmap = b

	job.Command, job.Payload, err = Compose(b, p.Encoder)
	if err != nil {
		return nil, job.fail(composeStage(err), nil, err)
	}
	return job, nil
}

// composeStage attributes a Compose failure to the bitmap or to the codec.
func composeStage(err error) Stage {
	if errors.Is(err, ErrRender) {
		return StageRender
	}
	return StageEncode
}

func (p *Pipeline) result(job *Job) *Result {
	res := &Result{
		JobID:     job.ID,
		LabelType: job.Type.Name,
		Width:     job.Bitmap.Width,
		Height:    job.Bitmap.Height,
		Length:    job.Payload.Length,
		RowLen:    job.Payload.RowLen,
		Command:   job.Command,
	}
	if p.DumpDir != "" {
		res.ZPLPath, res.DumpErr = dump(p.DumpDir, job.Type.Name, job.Command)
	}
	return res
}

func dump(dir, name, command string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name+".zpl")
	if err := os.WriteFile(path, []byte(command), 0644); err != nil {
		return "", err
	}
	return path, nil
}
