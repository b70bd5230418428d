package runner

import (
	"context"
	"os/exec"

	"github.com/semmidev/mongovault/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Shell runs commands through /bin/sh, capturing stdout and stderr together.
type Shell struct {
	shell  string
	logger Logger
}

func NewShell(logger Logger) *Shell {
	return &Shell{shell: "/bin/sh", logger: logger}
}

// Execute blocks until command exits. Output is only logged when the
// command fails, and then becomes the message of the returned
// *domain.ExecutionError.
func (s *Shell) Execute(ctx context.Context, command, description string) error {
	s.logger.Infof("%s started...", description)

	cmd := exec.CommandContext(ctx, s.shell, "-c", command)
	output, err := cmd.CombinedOutput()
	if err == nil {
		s.logger.Infof("%s ended", description)
		return nil
	}

	s.logger.Errorf("%s failed: %s", description, output)
	return &domain.ExecutionError{
		Description: description,
		Output:      string(output),
		Err:         err,
	}
}
