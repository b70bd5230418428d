package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoProjects       = errors.New("no projects for backup found")
	ErrNothingScheduled = errors.New("no project could be scheduled")
)

// Pipeline phases, used in PipelineError and log lines.
const (
	PhasePrepare  = "preparing"
	PhaseDump     = "dumping"
	PhaseCompress = "compressing"
	PhaseCleanup  = "removing dump dir"
	PhaseRead     = "reading file"
	PhaseUpload   = "uploading"
	PhaseDelete   = "removing local copy"
)

// ExecutionError is returned when an external command exits non-zero. The
// message is the combined output of the command.
type ExecutionError struct {
	Description string
	Output      string
	Err         error
}

func (e *ExecutionError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return fmt.Sprintf("%s failed: %v", e.Description, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

type UploadError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// FilesystemError covers cleanup, read and delete failures on local files.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// PipelineError records the project and phase a backup run stopped at.
type PipelineError struct {
	Project string
	Phase   string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Project, e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
