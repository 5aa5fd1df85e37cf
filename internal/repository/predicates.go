package repository

import (
	"strings"
)

// likeEscape is the escape character used in every LIKE predicate. It is not
// a backslash so the same SQL works on postgres, mysql and sqlite.
const likeEscape = "!"

// fieldColumns are the text columns matched by a free-text term.
var fieldColumns = []string{
	"name",
	"name_en",
	"nickname",
	"nickname_en",
	"company",
	"position",
	"tagline",
}

// containsPattern builds a lower-cased LIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return likePattern(strings.ToLower(term))
}

func likePattern(s string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return "%" + r.Replace(s) + "%"
}

// columnMatch matches col against term ignoring case. SQLite's LOWER only
// folds ASCII, so a term with other cased letters is also matched as typed.
func columnMatch(col, term string) (string, []interface{}) {
	lowered := "LOWER(COALESCE(" + col + ", '')) LIKE ? ESCAPE '" + likeEscape + "'"
	if strings.ToLower(term) == term {
		return lowered, []interface{}{containsPattern(term)}
	}
	asTyped := "COALESCE(" + col + ", '') LIKE ? ESCAPE '" + likeEscape + "'"
	return "(" + lowered + " OR " + asTyped + ")", []interface{}{containsPattern(term), likePattern(term)}
}

// fieldsClause returns the OR of every field predicate plus the category alias
// predicate, and its bind arguments.
func fieldsClause(term string, categoryCodes []string) (string, []interface{}) {
	parts := make([]string, 0, len(fieldColumns)+1)
	args := make([]interface{}, 0, 2*len(fieldColumns)+1)
	for _, col := range fieldColumns {
		sql, colArgs := columnMatch(col, term)
		parts = append(parts, sql)
		args = append(args, colArgs...)
	}
	if len(categoryCodes) > 0 {
		parts = append(parts, "COALESCE(category_code, '') IN ?")
		args = append(args, categoryCodes)
	}

	return "(" + strings.Join(parts, " OR ") + ")", args
}

// tagsClause matches the serialized tags column.
func tagsClause(term string) (string, []interface{}) {
	return columnMatch("tags", term)
}
