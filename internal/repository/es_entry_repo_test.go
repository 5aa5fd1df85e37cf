package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsQuery_ScopesBeforeText(t *testing.T) {
	q := fieldsQuery(EntryFilter{TenantID: "t1", Term: "Som*chai?", CategoryCodes: []string{"IT"}})

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded struct {
		Bool struct {
			Filter []map[string]json.RawMessage `json:"filter"`
		} `json:"bool"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Bool.Filter, 3)
	assert.JSONEq(t, `{"tenant_id":"t1"}`, string(decoded.Bool.Filter[0]["term"]))
	assert.JSONEq(t, `{"status":["active","visitor"]}`, string(decoded.Bool.Filter[1]["terms"]))

	body := string(data)
	assert.Contains(t, body, `"value":"*som\\*chai\\?*"`)
	assert.Contains(t, body, `"category_code":["IT"]`)
	assert.Contains(t, body, `"minimum_should_match":1`)
}

func TestFieldsQuery_CategoryBrowse(t *testing.T) {
	q := fieldsQuery(EntryFilter{TenantID: "t1", Statuses: []string{"active"}, CategoryCode: "LAW", Term: "x"})

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"filter":[
		{"term":{"tenant_id":"t1"}},
		{"terms":{"status":["active"]}},
		{"term":{"category_code":"LAW"}}
	]}}`, string(data))
}

func TestTagsOnlyQuery_ExcludesFieldMatches(t *testing.T) {
	q := tagsOnlyQuery(EntryFilter{TenantID: "t1", Term: "golf"})

	b := q["bool"].(map[string]interface{})
	assert.Len(t, b["filter"], 3)
	assert.Len(t, b["must_not"], len(esTextFields))
}
