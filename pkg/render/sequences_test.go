package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetScrollRegion(t *testing.T) {
	assert.Equal(t, "\x1b[5;20r", setScrollRegion(5, 20))
}

func TestResetScrollRegion(t *testing.T) {
	assert.Equal(t, "\x1b[r", resetScrollRegion())
}

func TestNotify_SanitizesAndWraps(t *testing.T) {
	seq, ok := Notify("build failed\n\nsee logs")
	assert.True(t, ok)
	assert.Equal(t, "\x1b]9;build failed see logs\a", seq)
}

func TestNotify_EmptyAfterSanitizationIsRejected(t *testing.T) {
	_, ok := Notify("\x01\x02\x03")
	assert.False(t, ok)
}
