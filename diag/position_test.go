package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LFAdvancesLineResetsColumn(t *testing.T) {
	assert := assert.New(t)

	tr := NewTracker()
	tr.Advance([]rune("ab\ncd"))

	assert.Equal(Position{Line: 2, Column: 3}, tr.Snapshot())
}

func TestTracker_CRLFCountsAsOneNewline(t *testing.T) {
	assert := assert.New(t)

	tr := NewTracker()
	tr.Advance([]rune("a\r\nb"))

	assert.Equal(Position{Line: 2, Column: 2}, tr.Snapshot())
}

func TestTracker_SplitCRLFMatchesUnsplit(t *testing.T) {
	assert := assert.New(t)

	split := NewTracker()
	split.Advance([]rune("a\r"))
	split.Advance([]rune("\nb"))

	whole := NewTracker()
	whole.Advance([]rune("a\r\nb"))

	assert.Equal(whole.Snapshot(), split.Snapshot())
}

func TestTracker_AdvanceIsAssociative(t *testing.T) {
	assert := assert.New(t)

	x, y := []rune("foo\r"), []rune("\nbar")

	whole := NewTracker()
	whole.Advance(append(append([]rune{}, x...), y...))

	parts := NewTracker()
	parts.Advance(x)
	parts.Advance(y)

	assert.Equal(whole.Snapshot(), parts.Snapshot())
}

func TestTracker_LoneTrailingCRFlushedByCompleteInput(t *testing.T) {
	assert := assert.New(t)

	tr := NewTracker()
	tr.Advance([]rune("end\r"))
	tr.CompleteInput()

	assert.Equal(Position{Line: 2, Column: 1}, tr.Snapshot())
}

func TestError_StringsNameTheirKind(t *testing.T) {
	assert := assert.New(t)

	e := NewLexical(Position{Line: 1, Column: 5}, '$')
	assert.Contains(e.Error(), "lexical error")

	e2 := NewUnexpectedToken(Position{Line: 2, Column: 1}, 3, []uint32{1, 2})
	assert.Contains(e2.Error(), "unexpected token")
}
