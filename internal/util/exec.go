package util

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/markusressel/thermal2go/internal/ui"
)

// DefaultCmdTimeout is used for commands without a configured timeout
const DefaultCmdTimeout = 2 * time.Second

// SafeCmdExecution executes the given command, if its file permissions are safe,
// and returns its trimmed output.
// A command that runs longer than timeout fails with context.DeadlineExceeded.
func SafeCmdExecution(executable string, args []string, timeout time.Duration) (string, error) {
	if _, err := CheckFilePermissionsForExecution(executable); err != nil {
		return "", fmt.Errorf("cannot execute %s: %w", executable, err)
	}
	return CmdExecution(executable, args, timeout)
}

// CmdExecution executes the given command without checking its permissions
func CmdExecution(executable string, args []string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultCmdTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		ui.Warning("Command timed out: %s", executable)
		return "", fmt.Errorf("command %s: %w", executable, ctx.Err())
	}

	if err != nil {
		ui.Warning("Command failed to execute: %s", executable)
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}

// ReplacePlaceholders replaces every %key% in args with its value
func ReplacePlaceholders(args []string, values map[string]string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for key, value := range values {
			arg = strings.ReplaceAll(arg, "%"+key+"%", value)
		}
		result[i] = arg
	}
	return result
}
