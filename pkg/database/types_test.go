package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray_ScanFormats(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  StringArray
	}{
		{name: "json", input: `["golf","ไวน์"]`, want: StringArray{"golf", "ไวน์"}},
		{name: "json bytes", input: []byte(`["a"]`), want: StringArray{"a"}},
		{name: "postgres", input: `{golf,"wine, red"}`, want: StringArray{"golf", "wine, red"}},
		{name: "postgres empty", input: `{}`, want: StringArray{}},
		{name: "empty string", input: ``, want: StringArray{}},
		{name: "plain", input: `solo`, want: StringArray{"solo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringArray
			require.NoError(t, got.Scan(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringArray_ScanNil(t *testing.T) {
	got := StringArray{"x"}
	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
}

func TestStringArray_ValueKeepsAmpersand(t *testing.T) {
	v, err := StringArray{"R&D", "ไทย"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["R&D","ไทย"]`, v)
}

func TestStringArray_Normalize(t *testing.T) {
	got := StringArray{" Golf ", "", "golf", "Wine"}.Normalize()
	assert.Equal(t, StringArray{"Golf", "Wine"}, got)
}
