// Package sandboxdocker is a remote Terminal Run backend alternative to
// sandboxk8s for deployments without a Kubernetes cluster: it runs the
// run's command inside a disposable container via the Docker Engine API.
package sandboxdocker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/relaycode/tuichat/pkg/termrun"
)

// Backend implements termrun.Backend by creating one container per run.
type Backend struct {
	cli   *client.Client
	image string
}

// New creates a Docker sandbox backend. image is the container image
// every run executes argv inside (expected to carry the tools the shell
// commands need, e.g. the same toolchain as the local PTY backend).
func New(cli *client.Client, image string) *Backend {
	return &Backend{cli: cli, image: image}
}

func (b *Backend) Start(ctx context.Context, argv []string, rows, cols uint16) (termrun.Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("sandboxdocker: empty command")
	}
	name := fmt.Sprintf("tuichat-run-%s", uuid.NewString())

	created, err := b.cli.ContainerCreate(ctx, &container.Config{
		Image:        b.image,
		Cmd:          argv,
		Tty:          true,
		OpenStdin:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	}, &container.HostConfig{
		AutoRemove:   false,
		PortBindings: nat.PortMap{},
	}, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("sandboxdocker: create container: %w", err)
	}

	attach, err := b.cli.ContainerAttach(ctx, created.ID, container.AttachOptions{
		Stream: true, Stdin: true, Stdout: true, Stderr: true,
	})
	if err != nil {
		_ = b.cli.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("sandboxdocker: attach: %w", err)
	}

	if err := b.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		attach.Close()
		_ = b.cli.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("sandboxdocker: start container: %w", err)
	}

	if rows > 0 && cols > 0 {
		_ = b.cli.ContainerResize(ctx, created.ID, container.ResizeOptions{Height: uint(rows), Width: uint(cols)})
	}

	return &handle{cli: b.cli, id: created.ID, conn: attach}, nil
}

// handle satisfies termrun.Handle over an attached container's TTY
// stream (types.HijackedResponse: a raw net.Conn plus a buffered
// Reader multiplexing stdout/stderr), plus the Engine API's
// resize/wait/remove calls.
type handle struct {
	cli  *client.Client
	id   string
	conn types.HijackedResponse
}

func (h *handle) Read(p []byte) (int, error)  { return h.conn.Reader.Read(p) }
func (h *handle) Write(p []byte) (int, error) { return h.conn.Conn.Write(p) }

func (h *handle) Resize(rows, cols uint16) error {
	if rows == 0 || cols == 0 {
		return nil
	}
	return h.cli.ContainerResize(context.Background(), h.id, container.ResizeOptions{Height: uint(rows), Width: uint(cols)})
}

func (h *handle) Wait() (int, error) {
	statusCh, errCh := h.cli.ContainerWait(context.Background(), h.id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, err
	case status := <-statusCh:
		return int(status.StatusCode), nil
	}
}

func (h *handle) Close() error {
	h.conn.Close()
	return h.cli.ContainerRemove(context.Background(), h.id, container.RemoveOptions{Force: true})
}
