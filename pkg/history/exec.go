package history

import (
	"time"

	"github.com/relaycode/tuichat/pkg/streambuf"
)

// ExecAction classifies the shape of a shell invocation so the
// renderer can pick an icon/summary style without re-parsing argv.
type ExecAction string

const (
	ExecActionRead   ExecAction = "read"
	ExecActionSearch ExecAction = "search"
	ExecActionList   ExecAction = "list"
	ExecActionRun    ExecAction = "run"
)

// ExecStatus is the lifecycle state of an Exec record.
type ExecStatus string

const (
	ExecRunning ExecStatus = "running"
	ExecSuccess ExecStatus = "success"
	ExecError   ExecStatus = "error"
)

// execTransitions enforces forward-only movement, same shape as
// ValidToolTransition.
var execTransitions = map[ExecStatus][]ExecStatus{
	ExecRunning: {ExecSuccess, ExecError},
	ExecSuccess: {},
	ExecError:   {},
}

// ValidExecTransition reports whether an Exec may move from from to to.
func ValidExecTransition(from, to ExecStatus) bool {
	if from == "" || from == to {
		return true
	}
	for _, next := range execTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Exec is a single shell invocation: its argv, a human summary, and
// its growing stdout/stderr streams.
type Exec struct {
	CallID      string     `json:"call_id,omitempty"`
	Command     []string   `json:"command"`
	ParsedSummary string   `json:"parsed_summary,omitempty"`
	Action      ExecAction `json:"action"`
	Status      ExecStatus `json:"status"`

	Stdout *streambuf.Buffer `json:"-"`
	Stderr *streambuf.Buffer `json:"-"`

	ExitCode    *int       `json:"exit_code,omitempty"`
	WaitTotal   *time.Duration `json:"wait_total,omitempty"`
	WaitActive  bool       `json:"wait_active"`
	WaitNotes   string     `json:"wait_notes,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
}

// execWire is the JSON-serializable shape of Exec: streambuf.Buffer
// has no natural JSON mapping, so Stdout/Stderr are exported as their
// retained-byte slices instead (snapshot persistence does not need to
// round-trip eviction history, only the retained tail and its offset).
type execWire struct {
	CallID        string            `json:"call_id,omitempty"`
	Command       []string          `json:"command"`
	ParsedSummary string            `json:"parsed_summary,omitempty"`
	Action        ExecAction        `json:"action"`
	Status        ExecStatus        `json:"status"`
	StdoutOffset  int64             `json:"stdout_offset"`
	Stdout        string            `json:"stdout"`
	StderrOffset  int64             `json:"stderr_offset"`
	Stderr        string            `json:"stderr"`
	ExitCode      *int              `json:"exit_code,omitempty"`
	WaitTotal     *time.Duration    `json:"wait_total,omitempty"`
	WaitActive    bool              `json:"wait_active"`
	WaitNotes     string            `json:"wait_notes,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	WorkingDir    string            `json:"working_dir,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
}

func (e Exec) toWire() execWire {
	w := execWire{
		CallID: e.CallID, Command: e.Command, ParsedSummary: e.ParsedSummary,
		Action: e.Action, Status: e.Status, ExitCode: e.ExitCode,
		WaitTotal: e.WaitTotal, WaitActive: e.WaitActive, WaitNotes: e.WaitNotes,
		StartedAt: e.StartedAt, CompletedAt: e.CompletedAt,
		WorkingDir: e.WorkingDir, Env: e.Env, Tags: e.Tags,
	}
	if e.Stdout != nil {
		w.StdoutOffset = e.Stdout.TruncatedPrefixLen()
		w.Stdout = string(e.Stdout.Concat())
	}
	if e.Stderr != nil {
		w.StderrOffset = e.Stderr.TruncatedPrefixLen()
		w.Stderr = string(e.Stderr.Concat())
	}
	return w
}

func (w execWire) toExec() Exec {
	e := Exec{
		CallID: w.CallID, Command: w.Command, ParsedSummary: w.ParsedSummary,
		Action: w.Action, Status: w.Status, ExitCode: w.ExitCode,
		WaitTotal: w.WaitTotal, WaitActive: w.WaitActive, WaitNotes: w.WaitNotes,
		StartedAt: w.StartedAt, CompletedAt: w.CompletedAt,
		WorkingDir: w.WorkingDir, Env: w.Env, Tags: w.Tags,
		Stdout: streambuf.New(), Stderr: streambuf.New(),
	}
	if w.Stdout != "" {
		e.Stdout.Append(streambuf.Chunk{Offset: w.StdoutOffset, Content: []byte(w.Stdout)})
	}
	if w.Stderr != "" {
		e.Stderr.Append(streambuf.Chunk{Offset: w.StderrOffset, Content: []byte(w.Stderr)})
	}
	return e
}

// MergedExec collapses a run of completed Exec records into a single
// display entity (e.g. a sequence of `cd`/`ls` calls shown as one
// block).
type MergedExec struct {
	Action  ExecAction `json:"action"`
	Segments []Exec    `json:"segments"`
}
