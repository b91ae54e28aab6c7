// Package tool spawns an external binary (an mkvmerge-like or ffmpeg-like
// muxer, or an ffprobe-like prober), optionally via a JSON sidecar argfile,
// and normalizes the result into {stdout, stderr, code}.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

// Output is the normalized result of running an external tool.
type Output struct {
	Stdout   string
	Stderr   string
	Code     int
	Success  bool
}

// Registry is the read-only set of external binary paths mux-media
// invokes, shared by reference across workers.
type Registry struct {
	Mkvmerge string
	Ffmpeg   string
	Ffprobe  string
	SidecarDir string
}

// Run executes name with args, waiting for completion and collecting both
// streams. It never applies a timeout; ctx cancellation is the only way to
// interrupt it.
func Run(ctx context.Context, name string, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if runErr == nil {
		out.Code = 0
		out.Success = true
		return out, nil
	}
	var exitErr *exec.ExitError
	if ok := asExitError(runErr, &exitErr); ok {
		out.Code = exitErr.ExitCode()
		out.Success = false
		return out, nil
	}
	// a non-ExitError failure (binary not found, permissions, context
	// cancellation) is not a classifiable tool exit; propagate it.
	return out, fmt.Errorf("spawn %s: %w", name, runErr)
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// RunWithSidecar writes args to a fresh JSON argfile under the registry's
// sidecar directory (named with a uuid so a restarted pool never collides
// with a leftover file) and invokes name with a single "@<path>" argument.
// The sidecar is removed once the tool exits, best-effort.
func RunWithSidecar(ctx context.Context, r *Registry, name string, args []string) (Output, error) {
	path, err := writeSidecar(r.SidecarDir, args)
	if err != nil {
		return Output{}, fmt.Errorf("write sidecar argfile: %w", err)
	}
	defer os.Remove(path)
	return Run(ctx, name, []string{"@" + path})
}

func writeSidecar(dir string, args []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s.json", uuid.NewString())
	path := dir + string(os.PathSeparator) + name
	data, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
