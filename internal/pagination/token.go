// Package pagination encodes "page N of a search" into postback data so a
// chat client can ask for the next page without server-side state.
//
// Tokens are unsigned and never expire. They carry no tenant: the tenant is
// always re-derived from the context the token arrives in.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	actionKey   = "action"
	actionValue = "dir_page"
	pageKey     = "page"
	termKey     = "q"
	categoryKey = "c"
)

// Token identifies one page of a free-text search or a category browse.
type Token struct {
	Page         int
	Term         string
	CategoryCode string
}

// IsCategory reports whether the token is a category browse.
func (t Token) IsCategory() bool {
	return t.CategoryCode != ""
}

// Encode serializes a token. Pages below 1 are encoded as page 1.
func Encode(t Token) string {
	page := t.Page
	if page < 1 {
		page = 1
	}

	var sb strings.Builder
	sb.WriteString(actionKey + "=" + actionValue)
	sb.WriteString("&" + pageKey + "=" + strconv.Itoa(page))
	if t.CategoryCode != "" {
		sb.WriteString("&" + categoryKey + "=" + url.QueryEscape(t.CategoryCode))
	} else {
		sb.WriteString("&" + termKey + "=" + url.QueryEscape(t.Term))
	}
	return sb.String()
}

// IsToken reports whether data looks like a pagination token at all.
// Postbacks from other features are not tokens.
func IsToken(data string) bool {
	return strings.HasPrefix(data, actionKey+"="+actionValue+"&") || data == actionKey+"="+actionValue
}

// Decode parses a token. Anything that does not have the expected shape
// decodes to page 1 with an empty term.
func Decode(data string) Token {
	values, err := url.ParseQuery(data)
	if err != nil {
		return Token{Page: 1}
	}
	if values.Get(actionKey) != actionValue || len(values[actionKey]) != 1 {
		return Token{Page: 1}
	}

	pages := values[pageKey]
	if len(pages) != 1 {
		return Token{Page: 1}
	}
	page, err := strconv.Atoi(pages[0])
	if err != nil || page < 1 {
		return Token{Page: 1}
	}

	terms, hasTerm := values[termKey]
	codes, hasCode := values[categoryKey]
	switch {
	case hasTerm && !hasCode && len(terms) == 1:
		return Token{Page: page, Term: terms[0]}
	case hasCode && !hasTerm && len(codes) == 1 && codes[0] != "":
		return Token{Page: page, CategoryCode: codes[0]}
	default:
		return Token{Page: 1}
	}
}

// Offset returns the store offset of the first row on page.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
