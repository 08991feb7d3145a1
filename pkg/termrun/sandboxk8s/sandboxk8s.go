// Package sandboxk8s is a remote Terminal Run backend: instead of a
// local PTY, it provisions a SandboxClaim pod per run (mirroring
// pkg/tools/builtins/codeinterpreter/kubernetes's acquirer) and execs the
// run's command inside it over the Kubernetes remotecommand protocol.
package sandboxk8s

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sandboxv1alpha1 "sigs.k8s.io/agent-sandbox/api/v1alpha1"
	extensionsv1alpha1 "sigs.k8s.io/agent-sandbox/extensions/api/v1alpha1"

	"github.com/relaycode/tuichat/pkg/termrun"
)

// Exec abstracts the remotecommand round-trip so Backend does not need
// to depend on a rest.Config/SPDY executor directly, keeping this
// package testable without a live cluster.
type Exec interface {
	Run(ctx context.Context, podName, namespace string, argv []string, stdin io.Reader, stdout, stderr io.Writer, rows, cols uint16) error
}

// Backend implements termrun.Backend by claiming a sandbox pod per run.
type Backend struct {
	client    client.Client
	exec      Exec
	template  string
	namespace string
	timeout   time.Duration
	log       *slog.Logger
}

// New creates a k8s sandbox backend bound to c (for SandboxClaim CRUD)
// and exec (for running commands inside the acquired pod).
func New(c client.Client, exec Exec, template, namespace string, timeout time.Duration, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{client: c, exec: exec, template: template, namespace: namespace, timeout: timeout, log: logger}
}

func (b *Backend) Start(ctx context.Context, argv []string, rows, cols uint16) (termrun.Handle, error) {
	claimName := fmt.Sprintf("tuichat-run-%s", uuid.NewString())

	claim := &extensionsv1alpha1.SandboxClaim{
		ObjectMeta: metav1.ObjectMeta{Name: claimName, Namespace: b.namespace},
		Spec:       extensionsv1alpha1.SandboxClaimSpec{TemplateRef: extensionsv1alpha1.SandboxTemplateRef{Name: b.template}},
	}
	if err := b.client.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("sandboxk8s: create SandboxClaim %q: %w", claimName, err)
	}

	podName, err := b.waitForPod(ctx, claimName)
	if err != nil {
		b.deleteClaim(context.Background(), claimName)
		return nil, err
	}

	h := &remoteHandle{
		backend:  b,
		claim:    claimName,
		pod:      podName,
		argv:     argv,
		rows:     rows,
		cols:     cols,
		done:     make(chan struct{}),
		exitCode: make(chan int, 1),
		execErr:  make(chan error, 1),
	}
	h.stdoutR, h.stdoutWriteSide = io.Pipe()
	h.stdinReadSide, h.stdinW = io.Pipe()
	h.start(ctx)
	return h, nil
}

// waitForPod polls the Sandbox resource the controller creates for
// claimName (same name, same namespace, per the claim/sandbox 1:1
// convention the CRD follows) until its Ready condition is true, then
// returns the pod to exec into — the Sandbox resource's own name, which
// the controller backs with a pod of the same name.
func (b *Backend) waitForPod(ctx context.Context, claimName string) (string, error) {
	deadline := time.After(b.timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	key := types.NamespacedName{Name: claimName, Namespace: b.namespace}
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("sandboxk8s: context cancelled waiting for claim %q: %w", claimName, ctx.Err())
		case <-deadline:
			return "", fmt.Errorf("sandboxk8s: timeout waiting for claim %q", claimName)
		case <-ticker.C:
			sandbox := &sandboxv1alpha1.Sandbox{}
			if err := b.client.Get(ctx, key, sandbox); err != nil {
				b.log.Debug("sandboxk8s: waiting for sandbox", "name", claimName, "error", err.Error())
				continue
			}
			if isReady(sandbox) {
				return sandbox.Name, nil
			}
		}
	}
}

func isReady(sandbox *sandboxv1alpha1.Sandbox) bool {
	for _, c := range sandbox.Status.Conditions {
		if c.Type == string(sandboxv1alpha1.SandboxConditionReady) && c.Status == metav1.ConditionTrue {
			return true
		}
	}
	return false
}

func (b *Backend) deleteClaim(ctx context.Context, name string) {
	claim := &extensionsv1alpha1.SandboxClaim{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: b.namespace}}
	if err := b.client.Delete(ctx, claim); err != nil {
		b.log.Warn("sandboxk8s: failed to delete claim", "name", name, "error", err.Error())
	}
}

// remoteHandle satisfies termrun.Handle over a pod exec session driven
// through a pair of io.Pipes so the Pool's reader/writer goroutines see
// the same io.Reader/io.Writer contract as the local PTY backend.
type remoteHandle struct {
	backend *Backend
	claim   string
	pod     string
	argv    []string
	rows    uint16
	cols    uint16

	stdinReadSide   *io.PipeReader
	stdinW          *io.PipeWriter
	stdoutR         *io.PipeReader
	stdoutWriteSide *io.PipeWriter

	done     chan struct{}
	exitCode chan int
	execErr  chan error
}

func (h *remoteHandle) start(ctx context.Context) {
	go func() {
		err := h.backend.exec.Run(ctx, h.pod, h.backend.namespace, h.argv, h.stdinReadSide, h.stdoutWriteSide, h.stdoutWriteSide, h.rows, h.cols)
		_ = h.stdoutWriteSide.Close()
		code := 0
		if err != nil {
			code = 1
		}
		h.execErr <- err
		h.exitCode <- code
		close(h.done)
	}()
}

func (h *remoteHandle) Read(p []byte) (int, error)  { return h.stdoutR.Read(p) }
func (h *remoteHandle) Write(p []byte) (int, error) { return h.stdinW.Write(p) }

func (h *remoteHandle) Resize(rows, cols uint16) error {
	// Resizing an in-flight remotecommand TTY session requires a resize
	// queue established at Run-time; not wired in this reference
	// implementation, so resize is a documented no-op for this backend.
	return nil
}

func (h *remoteHandle) Wait() (int, error) {
	code := <-h.exitCode
	err := <-h.execErr
	return code, err
}

func (h *remoteHandle) Close() error {
	_ = h.stdinW.Close()
	h.backend.deleteClaim(context.Background(), h.claim)
	return nil
}
