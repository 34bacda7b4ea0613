package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_Shorthand(t *testing.T) {
	def, err := ParseRequest("GET https://api.example.com/users/1")
	require.NoError(t, err)

	assert.Equal(t, "GET", def.Method)
	assert.Equal(t, "https://api.example.com/users/1", def.URL)
	assert.Empty(t, def.Headers)
	assert.Nil(t, def.Body)
	assert.Empty(t, def.Assertions)
}

func TestParseRequest_ShorthandLowercaseMethod(t *testing.T) {
	input := `# smoke check

post https://api.example.com/users
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	assert.Equal(t, "POST", def.Method)
	assert.Equal(t, "https://api.example.com/users", def.URL)
}

func TestParseRequest_ShorthandMissingURL(t *testing.T) {
	_, err := ParseRequest("DELETE")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "missing a url")
}

func TestParseRequest_FullForm(t *testing.T) {
	input := `[meta]
name = create user
description = creates a user record
tags = smoke, users

[vars]
host = api.example.com

[request]
method = POST
url = https://{{host}}/users

[request.headers]
Authorization = Bearer {{token}}
X-Trace = abc

[request.body]
"""
{
  "name": "Ada"
}
"""

[assert]
status = 201
body.id exists

[script]
post = extract_id.sh
`
	def, err := ParseRequest(input)
	require.NoError(t, err)

	assert.Equal(t, "create user", def.Name)
	assert.Equal(t, "creates a user record", def.Description)
	assert.Equal(t, []string{"smoke", "users"}, def.Tags)
	assert.Equal(t, map[string]string{"host": "api.example.com"}, def.Vars)
	assert.Equal(t, "POST", def.Method)
	assert.Equal(t, "https://{{host}}/users", def.URL)

	require.Len(t, def.Headers, 2)
	assert.Equal(t, "Authorization", def.Headers[0].Key)
	assert.Equal(t, "Bearer {{token}}", def.Headers[0].Value)
	assert.Equal(t, "X-Trace", def.Headers[1].Key)

	require.NotNil(t, def.Body)
	assert.Equal(t, "{\n  \"name\": \"Ada\"\n}", def.Body.Content)

	require.Len(t, def.Assertions, 2)
	assert.Equal(t, "status", def.Assertions[0].Target)
	assert.Equal(t, OpEquals, def.Assertions[0].Operator)
	assert.Equal(t, "201", def.Assertions[0].Expected)
	assert.Equal(t, "body.id", def.Assertions[1].Target)
	assert.Equal(t, OpExists, def.Assertions[1].Operator)

	require.NotNil(t, def.Scripts)
	assert.Equal(t, "extract_id.sh", def.Scripts.Post)
	assert.Empty(t, def.Scripts.Pre)
}

func TestParseRequest_MethodDefaultsToGET(t *testing.T) {
	input := `[request]
url = https://api.example.com/health
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	assert.Equal(t, "GET", def.Method)
}

func TestParseRequest_MissingURL(t *testing.T) {
	input := `[request]
method = POST
`
	_, err := ParseRequest(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a url")
}

func TestParseRequest_MissingRequestSection(t *testing.T) {
	input := `[meta]
name = orphan
`
	_, err := ParseRequest(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing [request] section")
}

func TestParseRequest_UnknownSection(t *testing.T) {
	input := `[request]
url = https://api.example.com

[nonsense]
key = value
`
	_, err := ParseRequest(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section [nonsense]")
}

func TestParseRequest_EmptyFile(t *testing.T) {
	_, err := ParseRequest("# nothing here\n\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no request definition")
}

func TestParseRequest_BodyBlockKeepsHashLines(t *testing.T) {
	input := `[request]
url = https://api.example.com/notes

[request.body]
content-type = text/plain
"""
line one
# not a comment
line three
"""
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	require.NotNil(t, def.Body)
	assert.Equal(t, "text/plain", def.Body.ContentType)
	assert.Equal(t, "line one\n# not a comment\nline three", def.Body.Content)
}

func TestParseRequest_BodyContentKey(t *testing.T) {
	input := `[request]
method = POST
url = https://api.example.com/ping

[request.body]
content = {"ping":true}
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	require.NotNil(t, def.Body)
	assert.Equal(t, `{"ping":true}`, def.Body.Content)
	assert.Empty(t, def.Body.ContentType)
}

func TestParseRequest_UnterminatedBodyBlock(t *testing.T) {
	input := `[request]
url = https://api.example.com

[request.body]
"""
{"never": "closed"}
`
	_, err := ParseRequest(input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated body block")
}

func TestParseRequest_QuotedAndCommentedValues(t *testing.T) {
	input := `[vars]
plain = hello # trailing comment
quoted = "keep # this"
empty = ""

[request]
url = https://api.example.com
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	assert.Equal(t, "hello", def.Vars["plain"])
	assert.Equal(t, "keep # this", def.Vars["quoted"])
	assert.Equal(t, "", def.Vars["empty"])
}

func TestParseRequest_AssertionShapes(t *testing.T) {
	input := `[request]
url = https://api.example.com

[assert]
status = 200
body.token exists
body contains "not found"
headers.Content-Type matches json$
duration < 500ms
body.count > 3
`
	def, err := ParseRequest(input)
	require.NoError(t, err)
	require.Len(t, def.Assertions, 6)
	assert.Empty(t, def.Warnings)

	assert.Equal(t, OpEquals, def.Assertions[0].Operator)
	assert.Equal(t, OpExists, def.Assertions[1].Operator)
	assert.Equal(t, OpContains, def.Assertions[2].Operator)
	assert.Equal(t, "not found", def.Assertions[2].Expected)
	assert.Equal(t, OpMatches, def.Assertions[3].Operator)
	assert.Equal(t, "headers.Content-Type", def.Assertions[3].Target)
	assert.Equal(t, OpLessThan, def.Assertions[4].Operator)
	assert.Equal(t, "500ms", def.Assertions[4].Expected)
	assert.Equal(t, OpGreaterThan, def.Assertions[5].Operator)
}

func TestParseRequest_MalformedAssertionsDropped(t *testing.T) {
	input := `[request]
url = https://api.example.com

[assert]
status
status ~ 200
status exists please
status = 200
`
	def, err := ParseRequest(input)
	require.NoError(t, err)

	require.Len(t, def.Assertions, 1)
	assert.Equal(t, OpEquals, def.Assertions[0].Operator)
	require.Len(t, def.Warnings, 3)
	assert.Contains(t, def.Warnings[0], "dropped malformed assertion")
}

func TestParseRequest_AssertionDescribe(t *testing.T) {
	def, err := ParseRequest(`[request]
url = https://api.example.com

[assert]
duration < 500ms
body contains "json"
body.id exists
`)
	require.NoError(t, err)
	require.Len(t, def.Assertions, 3)
	assert.Equal(t, "< 500ms", def.Assertions[0].Describe())
	assert.Equal(t, `contains "json"`, def.Assertions[1].Describe())
	assert.Equal(t, "exists", def.Assertions[2].Describe())
}

func TestParseRequestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "health.nap")
	require.NoError(t, os.WriteFile(path, []byte("GET https://api.example.com/health\n"), 0o644))

	def, err := ParseRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, def.Path)
	assert.Equal(t, "GET", def.Method)
}

func TestParseRequestFile_ErrorCarriesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.nap")
	require.NoError(t, os.WriteFile(path, []byte("[request]\nmethod = GET\n"), 0o644))

	_, err := ParseRequestFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
