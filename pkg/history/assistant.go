package history

import "time"

// AssistantDelta is one incremental piece of assistant output. Two
// deltas with equal Some-sequence (or both absent) coalesce into one;
// see AppendDelta.
type AssistantDelta struct {
	Text       string     `json:"text"`
	Sequence   *int64     `json:"sequence,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

// AppendDelta implements the assistant delta coalescing rule from
// spec.md §4.4: concatenate into the last delta when both sequences
// are present and equal, or both are absent; otherwise push a new
// delta.
func AppendDelta(deltas []AssistantDelta, next AssistantDelta) []AssistantDelta {
	if len(deltas) > 0 {
		last := &deltas[len(deltas)-1]
		sameSeq := (last.Sequence == nil && next.Sequence == nil) ||
			(last.Sequence != nil && next.Sequence != nil && *last.Sequence == *next.Sequence)
		if sameSeq {
			last.Text += next.Text
			last.ReceivedAt = next.ReceivedAt
			return deltas
		}
	}
	return append(deltas, next)
}

// AssistantStream is an in-progress assistant turn: a growing preview
// plus the raw delta sequence that produced it.
type AssistantStream struct {
	StreamID      string            `json:"stream_id"`
	PreviewMarkdown string          `json:"preview_markdown"`
	Deltas        []AssistantDelta  `json:"deltas"`
	Citations     []Citation        `json:"citations,omitempty"`
	Metadata      *MessageMetadata  `json:"metadata,omitempty"`
	InProgress    bool              `json:"in_progress"`
	LastUpdatedAt time.Time         `json:"last_updated_at"`
}

// AssistantMessage is a finalized assistant turn.
type AssistantMessage struct {
	StreamID   string           `json:"stream_id,omitempty"`
	Markdown   string           `json:"markdown"`
	Citations  []Citation       `json:"citations,omitempty"`
	Metadata   *MessageMetadata `json:"metadata,omitempty"`
	TokenUsage *TokenUsage      `json:"token_usage,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
