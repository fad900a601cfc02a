package util

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/replit/scaninit/internal/config"
)

func ProgressMsg(msg string) {
	if !config.Quiet {
		fmt.Fprintln(os.Stderr, "-->", msg)
	}
}

func quoteCmd(cmd []string) string {
	cleanedCmd := make([]string, len(cmd))
	copy(cleanedCmd, cmd)
	for i := range cmd {
		if strings.ContainsRune(cmd[i], '\n') {
			cleanedCmd[i] = "<secret sauce>"
		}
	}
	return shellquote.Join(cleanedCmd...)
}

// GetCmdOutput runs cmd and returns its stdout. extraEnv entries
// ("KEY=value") are appended to the inherited environment; they are
// never echoed. Stderr from the command is included in the error.
func GetCmdOutput(ctx context.Context, cmd []string, extraEnv []string) ([]byte, error) {
	ProgressMsg(quoteCmd(cmd))
	command := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	if len(extraEnv) > 0 {
		command.Env = append(os.Environ(), extraEnv...)
	}
	var stderr bytes.Buffer
	command.Stderr = &stderr
	output, err := command.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", cmd[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", cmd[0], err)
	}
	return output, nil
}
