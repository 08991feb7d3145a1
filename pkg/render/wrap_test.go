package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/history"
)

func TestWrapLine_BreaksAtWordBoundaries(t *testing.T) {
	line := cell.Line{Spans: []history.InlineSpan{{Text: "the quick brown fox jumps"}}}
	out := WrapLine(line, 10)

	require.Len(t, out, 3)
	assert.Equal(t, "the quick", flatten(out[0]))
	assert.Equal(t, "brown fox", flatten(out[1]))
	assert.Equal(t, "jumps", flatten(out[2]))
}

func TestWrapLine_PreservesSpanStyleAcrossBreak(t *testing.T) {
	line := cell.Line{Spans: []history.InlineSpan{
		{Text: "bold part ", Bold: true},
		{Text: "plain part"},
	}}
	out := WrapLine(line, 11)
	require.Len(t, out, 2)

	require.Len(t, out[0].Spans, 1)
	assert.True(t, out[0].Spans[0].Bold)
	assert.Equal(t, "bold part", out[0].Spans[0].Text)

	require.Len(t, out[1].Spans, 1)
	assert.False(t, out[1].Spans[0].Bold)
	assert.Equal(t, "plain part", out[1].Spans[0].Text)
}

func TestWrapLine_LongWordOverflowsItsOwnLine(t *testing.T) {
	line := cell.Line{Spans: []history.InlineSpan{{Text: "supercalifragilisticexpialidocious short"}}}
	out := WrapLine(line, 10)

	require.Len(t, out, 2)
	assert.Equal(t, "supercalifragilisticexpialidocious", flatten(out[0]))
	assert.Equal(t, "short", flatten(out[1]))
}

func TestWrapLine_RuleLinePassesThroughUnchanged(t *testing.T) {
	line := cell.Line{Rule: true}
	out := WrapLine(line, 10)
	require.Len(t, out, 1)
	assert.True(t, out[0].Rule)
}

func flatten(l cell.Line) string {
	var s string
	for _, span := range l.Spans {
		s += span.Text
	}
	return s
}
