package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Parse_Literal(t *testing.T) {
	n, err := Parse("ab")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Concat{Items: []Node{Char('a'), Char('b')}}, n)
}

func Test_Parse_Alt(t *testing.T) {
	n, err := Parse("a|b")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Alt{Items: []Node{Char('a'), Char('b')}}, n)
}

func Test_Parse_Star(t *testing.T) {
	n, err := Parse("a*")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Repeat{Item: Char('a'), Min: 0, Max: Infinite}, n)
}

func Test_Parse_Count(t *testing.T) {
	n, err := Parse("a{2,4}")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Repeat{Item: Char('a'), Min: 2, Max: 4}, n)
}

func Test_Parse_CountUnbounded(t *testing.T) {
	n, err := Parse("a{2,}")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Repeat{Item: Char('a'), Min: 2, Max: Infinite}, n)
}

func Test_Parse_Class(t *testing.T) {
	n, err := Parse("[a-z0-9]")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Chars{Ranges: []Range{{Lo: 'a', Hi: 'z'}, {Lo: '0', Hi: '9'}}}, n)
}

func Test_Parse_ClassInvert(t *testing.T) {
	n, err := Parse("[^a]")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Chars{Ranges: []Range{{Lo: 'a', Hi: 'a'}}, Invert: true}, n)
}

func Test_Parse_Group(t *testing.T) {
	n, err := Parse("(ab)+")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, Repeat{Item: Concat{Items: []Node{Char('a'), Char('b')}}, Min: 1, Max: Infinite}, n)
}

func Test_Parse_UnterminatedGroup(t *testing.T) {
	_, err := Parse("(ab")
	assert.Error(t, err)
}

func Test_Parse_UnterminatedClass(t *testing.T) {
	_, err := Parse("[abc")
	assert.Error(t, err)
}
