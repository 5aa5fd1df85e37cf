package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-directory/pkg/log"
)

func TestLog_WritesAuditLine(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{Level: "info", Output: &buf}))

	Log(ctx, Entry{Action: ActionSearch, Source: "webhook", TenantID: "t1", Term: "สมชาย", Page: 1, ResultCount: 6, TotalFound: 9}, "directory searched")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, log.LogTypeAudit, line[log.FieldLogType])
	assert.Equal(t, ActionSearch, line[FieldAction])
	assert.Equal(t, "t1", line[log.FieldTenantID])
	assert.Equal(t, "สมชาย", line[log.FieldTerm])
	assert.EqualValues(t, 9, line[log.FieldTotalFound])
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionSearch, ActionFor(1, ""))
	assert.Equal(t, ActionCategory, ActionFor(1, "IT"))
	assert.Equal(t, ActionPage, ActionFor(2, "IT"))
}
