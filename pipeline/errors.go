package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the step of a print job that failed.
type Stage string

const (
	StageLookup  Stage = "lookup"
	StageRender  Stage = "render"
	StageEncode  Stage = "encode"
	StageDeliver Stage = "deliver"
)

var (
	// ErrRender covers a failing bitmap source or a malformed bitmap.
	ErrRender = errors.New("render failed")
	// ErrCodec covers a failing or contract-breaking encoder.
	ErrCodec = errors.New("encoding failed")
	// ErrDeliver wraps transport failures; the printer package's ErrConnect,
	// ErrTimeout and ErrIO tell them apart.
	ErrDeliver = errors.New("delivery failed")
	// ErrDocumentLabel is returned for layouts that are not thermal labels.
	ErrDocumentLabel = errors.New("layout is printed from the browser")
)

// JobError carries the context of a failed job.
type JobError struct {
	JobID     string
	LabelType string
	Stage     Stage
	Err       error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("print job %s (%s): %s: %v", e.JobID, e.LabelType, e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func (j *Job) fail(stage Stage, kind error, err error) error {
	if kind != nil {
		err = fmt.Errorf("%w: %w", kind, err)
	}
	return &JobError{JobID: j.ID, LabelType: j.Type.Name, Stage: stage, Err: err}
}
