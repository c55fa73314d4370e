// Package render turns a code snippet into a PNG by running an external
// renderer (silicon by default).
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request describes one render. OutputPath must not exist yet.
type Request struct {
	Code       string
	Language   string
	Background string
	Theme      string
	Watermark  string
	OutputPath string
}

// Renderer produces the image for a Request.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

// execCommand is a seam for testing exec.CommandContext.
var execCommand = exec.CommandContext

// CommandRenderer runs a silicon-compatible binary. The code is passed on
// stdin; the watermark, when set, becomes the window title.
type CommandRenderer struct {
	path string
}

func NewCommandRenderer(path string) *CommandRenderer {
	return &CommandRenderer{path: path}
}

func (r *CommandRenderer) Render(ctx context.Context, req Request) error {
	if req.OutputPath == "" {
		return errors.New("render: empty output path")
	}

	cmd := execCommand(ctx, r.path, r.args(req)...)
	cmd.Stdin = strings.NewReader(req.Code)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("render: %w", ctxErr)
		}
		return fmt.Errorf("render: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("render: output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("render: output is empty")
	}
	return nil
}

func (r *CommandRenderer) args(req Request) []string {
	args := []string{
		"--language", req.Language,
		"--background", req.Background,
		"--theme", req.Theme,
	}
	if req.Watermark != "" {
		args = append(args, "--window-title", req.Watermark)
	}
	return append(args, "--output", req.OutputPath)
}
