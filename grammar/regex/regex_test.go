package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_HasUnboundedRepetition(t *testing.T) {
	testCases := []struct {
		name string
		n    Node
		want bool
	}{
		{"literal chars", Char('a'), false},
		{"any", Any{}, false},
		{"star", Star(Char('a')), true},
		{"bounded count", Repeat{Item: Char('a'), Min: 1, Max: 3}, false},
		{"concat with star inside", Concat{Items: []Node{Char('a'), Star(Char('b'))}}, true},
		{"alt with star inside", Alt{Items: []Node{Char('a'), Star(Char('b'))}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasUnboundedRepetition(tc.n))
		})
	}
}

func Test_Lower_FoldsCaseInsensitiveLiteral(t *testing.T) {
	n, err := Lower(StringLiteral{S: "Ab"}, false)
	if !assert.NoError(t, err) {
		return
	}
	concat, ok := n.(Concat)
	if !assert.True(t, ok) {
		return
	}
	assert.Len(t, concat.Items, 2)
	first := concat.Items[0].(Chars)
	assert.ElementsMatch(t, []Range{{Lo: 'A', Hi: 'A'}, {Lo: 'a', Hi: 'a'}}, first.Ranges)
}

func Test_Lower_LazyParsesPattern(t *testing.T) {
	n, err := Lower(Lazy{Pattern: "a+"}, true)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Repeat{Item: Chars{Ranges: []Range{{Lo: 'a', Hi: 'a'}}}, Min: 1, Max: Infinite}, n)
}

func Test_Chars_IsVoid(t *testing.T) {
	full := Chars{Invert: true, Ranges: []Range{{Lo: 0, Hi: 0x10FFFF}}}
	assert.True(t, full.IsVoid(0, 0x10FFFF))

	partial := Chars{Invert: true, Ranges: []Range{{Lo: 'a', Hi: 'z'}}}
	assert.False(t, partial.IsVoid(0, 0x10FFFF))

	empty := Chars{}
	assert.True(t, empty.IsVoid(0, 0x10FFFF))
}

func Test_Expand_BoundedRepeat(t *testing.T) {
	n := Expand(Repeat{Item: Char('a'), Min: 1, Max: 3})
	// Should contain no remaining bounded Repeat nodes.
	assertNoBoundedRepeat(t, n)
}

func assertNoBoundedRepeat(t *testing.T, n Node) {
	switch tt := n.(type) {
	case Repeat:
		assert.Equal(t, Infinite, tt.Max, "Expand should leave only unbounded repeats")
		assertNoBoundedRepeat(t, tt.Item)
	case Concat:
		for _, it := range tt.Items {
			assertNoBoundedRepeat(t, it)
		}
	case Alt:
		for _, it := range tt.Items {
			assertNoBoundedRepeat(t, it)
		}
	}
}

func Test_FixedLength(t *testing.T) {
	l, ok := FixedLength(Concat{Items: []Node{Char('a'), Char('b')}})
	assert.True(t, ok)
	assert.Equal(t, 2, l)

	_, ok = FixedLength(Star(Char('a')))
	assert.False(t, ok)

	l, ok = FixedLength(Repeat{Item: Char('a'), Min: 3, Max: 3})
	assert.True(t, ok)
	assert.Equal(t, 3, l)
}
