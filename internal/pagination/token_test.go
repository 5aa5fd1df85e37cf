package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	terms := []string{
		"สมชาย",
		"a&b=c",
		"  leading and trailing  ",
		"tab\tnew\nline",
		"100% + 50%",
		"q=1&page=9&c=IT",
		"日本語 テスト",
		"emoji 🙂",
		"",
	}
	for _, term := range terms {
		for _, page := range []int{1, 2, 17, 1000} {
			got := Decode(Encode(Token{Page: page, Term: term}))
			assert.Equal(t, Token{Page: page, Term: term}, got, "term %q page %d", term, page)
		}
	}
}

func TestRoundTrip_Category(t *testing.T) {
	tok := Token{Page: 3, CategoryCode: "R&D"}
	got := Decode(Encode(tok))

	assert.Equal(t, tok, got)
	assert.True(t, got.IsCategory())
}

func TestEncode_ClampsPage(t *testing.T) {
	assert.Equal(t, Token{Page: 1, Term: "x"}, Decode(Encode(Token{Page: 0, Term: "x"})))
}

func TestDecode_Malformed(t *testing.T) {
	for _, data := range []string{
		"",
		"garbage",
		"action=dir_page",
		"action=other&page=2&q=x",
		"action=dir_page&page=0&q=x",
		"action=dir_page&page=-3&q=x",
		"action=dir_page&page=two&q=x",
		"action=dir_page&page=2",
		"action=dir_page&page=2&page=3&q=x",
		"action=dir_page&page=2&q=x&c=IT",
		"action=dir_page&page=2&c=",
		"action=dir_page&page=2&q=%zz",
	} {
		assert.Equal(t, Token{Page: 1}, Decode(data), "data %q", data)
	}
}

func TestIsToken(t *testing.T) {
	assert.True(t, IsToken(Encode(Token{Page: 2, Term: "x"})))
	assert.False(t, IsToken("action=share&id=1"))
	assert.False(t, IsToken("action=dir_pagex&page=2"))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 6))
	assert.Equal(t, 6, Offset(2, 6))
	assert.Equal(t, 0, Offset(0, 6))
}
