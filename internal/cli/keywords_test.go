package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordsCommand_Text(t *testing.T) {
	out, err := execute(t, "keywords")
	require.NoError(t, err)

	for _, name := range []string{"content", "byte_extract", "byte_math", "http.uri", "http.host"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "sticky-buffer")
	assert.Contains(t, out, "quoted")
}

func TestKeywordsCommand_JSON(t *testing.T) {
	out, err := execute(t, "keywords", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []KeywordInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	names := make(map[string]KeywordInfo)
	for _, info := range resp.Data {
		names[info.Name] = info
	}
	require.Contains(t, names, "byte_extract")
	assert.NotEmpty(t, names["byte_extract"].Desc)
	assert.Contains(t, names["http.uri"].Flags, "sticky-buffer")
	assert.Contains(t, names["content"].Flags, "quoted")
}
