package cell

import (
	"fmt"
	"strings"

	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
)

func fromMessageLines(lines []history.MessageLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Kind == history.LineSeparator {
			out = append(out, Line{Rule: true})
			continue
		}
		spans := l.Spans
		if l.Kind == history.LineBullet {
			marker := l.Marker
			if marker == "" {
				marker = "-"
			}
			prefix := history.InlineSpan{Text: strings.Repeat("  ", l.Indent) + marker + " "}
			spans = append([]history.InlineSpan{prefix}, spans...)
		}
		out = append(out, Line{Spans: spans})
	}
	return out
}

func buildPlainMessage(rec history.Record) Cell {
	m := rec.PlainMessage
	c := Cell{ID: rec.ID(), Kind: KindPlain, Lines: fromMessageLines(m.Lines)}
	if m.Header != nil {
		c.Header = m.Header.Label
	}
	return c
}

func buildStatus(rec history.Record) Cell {
	var header, detail string
	switch rec.Kind() {
	case history.KindWaitStatus:
		header, detail = rec.WaitStatus.Header, rec.WaitStatus.Detail
	case history.KindLoading:
		header, detail = rec.Loading.Header, rec.Loading.Detail
	case history.KindNotice:
		header, detail = rec.Notice.Header, rec.Notice.Detail
	case history.KindUpgradeNotice:
		n := rec.UpgradeNotice
		header = fmt.Sprintf("update available: %s -> %s", n.CurrentVersion, n.LatestVersion)
		detail = n.Message
	case history.KindBackgroundEvent:
		header, detail = rec.BackgroundEvent.Title, rec.BackgroundEvent.Description
	}
	lines := []Line{toneLine(header, "dim")}
	if detail != "" {
		lines = append(lines, textLine(detail))
	}
	return Cell{ID: rec.ID(), Kind: KindStatus, Header: header, Lines: lines}
}

func buildTool(rec history.Record) Cell {
	if rec.Kind() == history.KindRunningTool {
		t := rec.RunningTool
		return Cell{
			ID: rec.ID(), Kind: KindTool, Header: t.Title,
			Lines: []Line{toneLine("running: "+strings.Join(t.Arguments, " "), "dim")},
		}
	}
	t := rec.ToolCall
	tone := "success"
	summary := t.ResultPreview
	if t.Status == history.ToolFailed {
		tone = "error"
		summary = t.ErrorMessage
	}
	lines := []Line{toneLine(fmt.Sprintf("%s (%s)", t.Status, t.Duration), tone)}
	if summary != "" {
		lines = append(lines, textLine(summary))
	}
	return Cell{ID: rec.ID(), Kind: KindTool, Header: t.Title, Lines: lines}
}

func buildPlan(rec history.Record) Cell {
	p := rec.PlanUpdate
	lines := make([]Line, 0, len(p.Steps)+1)
	lines = append(lines, toneLine(fmt.Sprintf("[%s] %d/%d", p.Icon(), p.Completed, p.Total), "dim"))
	for _, step := range p.Steps {
		marker := " "
		switch step.Status {
		case history.StepInProgress:
			marker = "~"
		case history.StepCompleted:
			marker = "x"
		}
		lines = append(lines, textLine(fmt.Sprintf("[%s] %s", marker, step.Description)))
	}
	return Cell{ID: rec.ID(), Kind: KindPlan, Header: p.Name, Lines: lines}
}

func buildReasoning(rec history.Record) Cell {
	r := rec.Reasoning
	var lines []Line
	for _, sec := range r.Sections {
		if sec.Heading != "" {
			lines = append(lines, toneLine(sec.Heading, "dim"))
		}
		if len(sec.Summary) > 0 {
			lines = append(lines, Line{Spans: sec.Summary})
		}
		for _, b := range sec.Blocks {
			if b.Kind == history.ReasoningSeparator {
				lines = append(lines, Line{Rule: true})
				continue
			}
			lines = append(lines, Line{Spans: b.Spans})
		}
	}
	header := ""
	if r.InProgress {
		header = "thinking..."
	}
	return Cell{ID: rec.ID(), Kind: KindReasoning, Header: header, Lines: lines}
}

func execSummaryLine(e history.Exec) Line {
	tone := "dim"
	status := string(e.Status)
	switch e.Status {
	case history.ExecSuccess:
		tone = "success"
	case history.ExecError:
		tone = "error"
	}
	summary := e.ParsedSummary
	if summary == "" {
		summary = strings.Join(e.Command, " ")
	}
	return toneLine(fmt.Sprintf("%s %s", status, summary), tone)
}

func streamTailLines(buf *streambuf.Buffer) []Line {
	if buf == nil {
		return nil
	}
	var lines []Line
	if buf.TruncatedPrefixLen() > 0 {
		lines = append(lines, toneLine(fmt.Sprintf("... %d bytes truncated ...", buf.TruncatedPrefixLen()), "dim"))
	}
	for _, l := range strings.Split(strings.TrimRight(string(buf.Concat()), "\n"), "\n") {
		if l == "" {
			continue
		}
		lines = append(lines, textLine(l))
	}
	return lines
}

func buildExec(rec history.Record) Cell {
	if rec.Kind() == history.KindMergedExec {
		me := rec.MergedExec
		lines := make([]Line, 0, len(me.Segments))
		for _, seg := range me.Segments {
			lines = append(lines, execSummaryLine(seg))
		}
		return Cell{ID: rec.ID(), Kind: KindExec, Header: string(me.Action), Lines: lines}
	}
	e := rec.Exec
	lines := []Line{execSummaryLine(*e)}
	lines = append(lines, streamTailLines(e.Stdout)...)
	if e.Stderr != nil && e.Stderr.RetainedLen() > 0 {
		lines = append(lines, toneLine("stderr:", "error"))
		lines = append(lines, streamTailLines(e.Stderr)...)
	}
	return Cell{ID: rec.ID(), Kind: KindExec, Header: string(e.Action), Lines: lines}
}

func buildAssistant(rec history.Record) Cell {
	if rec.Kind() == history.KindAssistantStream {
		s := rec.AssistantStream
		return Cell{ID: rec.ID(), Kind: KindAssistant, Lines: []Line{textLine(s.PreviewMarkdown)}}
	}
	m := rec.AssistantMessage
	lines := []Line{textLine(m.Markdown)}
	for _, c := range m.Citations {
		lines = append(lines, toneLine(fmt.Sprintf("[%s](%s)", c.Title, c.URL), "dim"))
	}
	return Cell{ID: rec.ID(), Kind: KindAssistant, Lines: lines}
}

func fileChangeLine(fc history.FileChange) Line {
	path := fc.Path
	if fc.Kind == history.FileRenamed {
		path = fc.Path + " -> " + fc.NewPath
	}
	return toneLine(fmt.Sprintf("%s %s (+%d/-%d)", fc.Kind, path, fc.Additions, fc.Deletions), "dim")
}

func buildDiff(rec history.Record) Cell {
	d := rec.Diff
	lines := make([]Line, 0, len(d.Changes))
	for _, fc := range d.Changes {
		lines = append(lines, fileChangeLine(fc))
	}
	return Cell{ID: rec.ID(), Kind: KindDiff, Header: d.Title, Lines: lines}
}

func buildPatch(rec history.Record) Cell {
	p := rec.Patch
	lines := make([]Line, 0, len(p.Changes)+1)
	switch p.Type {
	case history.PatchApprovalRequest:
		lines = append(lines, toneLine("awaiting approval", "dim"))
	case history.PatchApplyBegin:
		tone := "dim"
		note := "applying"
		if p.AutoApproved {
			note = "applying (auto-approved)"
		}
		lines = append(lines, toneLine(note, tone))
	case history.PatchApplySuccess:
		lines = append(lines, toneLine("applied", "success"))
	case history.PatchApplyFailure:
		lines = append(lines, toneLine("failed to apply", "error"))
		if p.Failure != nil {
			lines = append(lines, textLine(p.Failure.Message))
		}
	}
	for _, fc := range p.Changes {
		lines = append(lines, fileChangeLine(fc))
	}
	return Cell{ID: rec.ID(), Kind: KindPatch, Lines: lines}
}

func buildRateLimits(rec history.Record) Cell {
	rl := rec.RateLimits
	var lines []Line
	windowLine := func(w *history.RateLimitWindow) {
		if w == nil {
			return
		}
		lines = append(lines, toneLine(fmt.Sprintf("%s: %.0f%% %s", w.Label, w.UsedPercent, w.ResetsInText), "dim"))
	}
	windowLine(rl.Primary)
	windowLine(rl.Secondary)
	return Cell{ID: rec.ID(), Kind: KindRateLimits, Lines: lines}
}

func buildExplore(rec history.Record) Cell {
	e := rec.Explore
	lines := make([]Line, 0, len(e.Matches)+1)
	for _, m := range e.Matches {
		lines = append(lines, textLine(m))
	}
	if e.Truncated {
		lines = append(lines, toneLine("... truncated ...", "dim"))
	}
	return Cell{ID: rec.ID(), Kind: KindExplore, Header: e.Query, Lines: lines}
}
