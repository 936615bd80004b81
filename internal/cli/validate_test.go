package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const badRules = `
rules:
  - sid: 1
    msg: forward reference
    keywords:
      - keyword: byte_math
        args: "bytes 1, offset 0, oper +, rvalue later, result r"
      - keyword: byte_extract
        args: "1, 0, later"
  - sid: 2
    msg: fine
    keywords:
      - keyword: content
        args: '"ok"'
`

func TestValidateCommand_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", yamlRules)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK 1 rule(s) compiled")
	assert.Contains(t, out, "fingerprint")
}

func TestValidateCommand_RejectedRule(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", badRules)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "REJECT")
	assert.Contains(t, out, "[E105]")
	assert.Contains(t, out, "1 of 2 rule(s) compiled")
}

func TestValidateCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", badRules)

	out, err := execute(t, "validate", path, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.RuleCount)
	assert.Equal(t, 1, resp.Data.Compiled)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E105", resp.Data.Errors[0].Code)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "/nonexistent/rules.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
