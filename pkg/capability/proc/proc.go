// Package proc implements fozzy's proc capability: a scripted matcher
// table by default, and a real container-backed process host backend.
// Grounded on the teacher's pkg/injection/container (Manager/KillManager/
// RestartManager), generalized from "manage a running container's
// lifecycle" to "spawn a container, capture its exit, and report it as a
// single proc_result decision."
package proc

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// Result is the scripted/host-agnostic result shape for a proc effect.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Matchers is the scripted proc backend: canned results keyed by the
// command line, drawn from the scenario's proc fixtures.
type Matchers struct {
	table []scenario.ProcMatcher
}

// NewMatchers builds a scripted backend from a scenario's proc fixtures.
func NewMatchers(table []scenario.ProcMatcher) *Matchers {
	return &Matchers{table: table}
}

// Match finds the fixture for command and returns its canned result.
func (m *Matchers) Match(command string) (Result, error) {
	for _, fx := range m.table {
		if fx.Command == command {
			return Result{Stdout: fx.Stdout, Stderr: fx.Stderr, ExitCode: fx.ExitCode}, nil
		}
	}
	return Result{}, fozzyerr.Newf(fozzyerr.KindCapability, "proc.Matchers.Match", "no scripted fixture for command %q", command)
}

// HostBackend spawns a throwaway container to run command and captures
// its exit, bounding captured stdout at outputCeiling bytes.
type HostBackend struct {
	docker        *dockerclient.Client
	image         string
	outputCeiling int64
}

// NewHostBackend returns a backend that spawns containers from image via
// the given docker client, capping captured output at outputCeiling bytes.
func NewHostBackend(docker *dockerclient.Client, image string, outputCeiling int64) *HostBackend {
	return &HostBackend{docker: docker, image: image, outputCeiling: outputCeiling}
}

// Run spawns a container running command, waits for it to exit, and
// returns its captured output and exit code.
func (h *HostBackend) Run(ctx context.Context, command []string) (Result, error) {
	resp, err := h.docker.ContainerCreate(ctx, &container.Config{
		Image: h.image,
		Cmd:   command,
	}, nil, nil, nil, "")
	if err != nil {
		return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", err)
	}
	defer func() {
		_ = h.docker.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := h.docker.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", err)
	}

	statusCh, errCh := h.docker.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-ctx.Done():
		return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", ctx.Err())
	}

	out, err := h.docker.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", err)
	}
	defer out.Close()

	limited := io.LimitReader(out, h.outputCeiling+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return Result{}, fozzyerr.New(fozzyerr.KindCapability, "proc.HostBackend.Run", err)
	}
	if int64(len(data)) > h.outputCeiling {
		data = data[:h.outputCeiling]
	}

	var buf bytes.Buffer
	buf.Write(data)
	return Result{Stdout: buf.String(), ExitCode: int(exitCode)}, nil
}

// Label builds the decision-log label for a proc effect at a step index.
func Label(command string, stepIndex int) string {
	return fmt.Sprintf("proc_%s#%d", command, stepIndex)
}
