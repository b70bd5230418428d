package domain

import (
	"context"
	"time"
)

// Archive is the per-invocation state of one backup run.
type Archive struct {
	Project   string
	DumpDir   string
	FileName  string
	LocalPath string
	RemoteKey string
	StartedAt time.Time
}

type StorageTarget struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// CommandRunner executes a shell command to completion and fails with
// *ExecutionError when it exits non-zero.
type CommandRunner interface {
	Execute(ctx context.Context, command, description string) error
}

// Notifier receives the outcome of every finished backup run.
type Notifier interface {
	NotifySuccess(ctx context.Context, project, location string) error
	NotifyFailure(ctx context.Context, project string, cause error) error
}
