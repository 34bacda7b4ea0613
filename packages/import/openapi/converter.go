// Package openapi converts OpenAPI/Swagger specifications into nap request
// files and a playlist covering them.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// PlaylistName is the filename of the generated playlist.
const PlaylistName = "api.naplist"

// File is a single generated artifact, named relative to the output directory.
type File struct {
	Name    string
	Content string
}

// Converter converts OpenAPI specs to nap files
type Converter struct {
	baseURL       string
	includeTags   []string
	excludeTags   []string
	includeOnly   []string // specific operation IDs
	generateTests bool
}

// Option is a functional option for Converter
type Option func(*Converter)

// WithBaseURL sets a custom base URL, overriding the one from the spec
func WithBaseURL(url string) Option {
	return func(c *Converter) {
		c.baseURL = url
	}
}

// WithTags filters operations by tags
func WithTags(tags []string) Option {
	return func(c *Converter) {
		c.includeTags = tags
	}
}

// WithExcludeTags excludes operations with these tags
func WithExcludeTags(tags []string) Option {
	return func(c *Converter) {
		c.excludeTags = tags
	}
}

// WithOperations filters to specific operation IDs
func WithOperations(ops []string) Option {
	return func(c *Converter) {
		c.includeOnly = ops
	}
}

// WithTests generates assertions from response schemas
func WithTests(generate bool) Option {
	return func(c *Converter) {
		c.generateTests = generate
	}
}

// NewConverter creates a new OpenAPI converter
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		generateTests: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile loads an OpenAPI spec from a file path or http(s) URL and
// converts it. The returned files include the playlist as the last entry.
func (c *Converter) ConvertFile(path string) ([]File, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	var (
		doc *openapi3.T
		err error
	)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		var u *url.URL
		u, err = url.Parse(path)
		if err == nil {
			doc, err = loader.LoadFromURI(u)
		}
	} else {
		doc, err = loader.LoadFromFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	return c.Convert(doc)
}

// ConvertToDir converts a spec and writes the generated files into outDir.
// It returns the paths written, the playlist last.
func (c *Converter) ConvertToDir(specPath, outDir string) ([]string, error) {
	files, err := c.ConvertFile(specPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outDir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Convert converts an OpenAPI document, producing one request file per
// operation plus a playlist covering them all.
func (c *Converter) Convert(doc *openapi3.T) ([]File, error) {
	if err := doc.Validate(context.Background()); err != nil {
		// Log warning but continue - some specs have minor validation issues
		fmt.Fprintf(os.Stderr, "warning: OpenAPI spec validation: %v\n", err)
	}

	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = c.getBaseURL(doc)
	}

	// Sort paths for consistent output
	paths := make([]string, 0, len(doc.Paths.Map()))
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var files []File
	seen := map[string]int{}

	for _, path := range paths {
		pathItem := doc.Paths.Map()[path]
		if pathItem == nil {
			continue
		}

		operations := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", pathItem.Get},
			{"POST", pathItem.Post},
			{"PUT", pathItem.Put},
			{"PATCH", pathItem.Patch},
			{"DELETE", pathItem.Delete},
			{"HEAD", pathItem.Head},
			{"OPTIONS", pathItem.Options},
		}

		for _, entry := range operations {
			if entry.op == nil {
				continue
			}
			if !c.shouldInclude(entry.op) {
				continue
			}

			name := operationName(path, entry.method, entry.op)
			if n := seen[name]; n > 0 {
				seen[name] = n + 1
				name = fmt.Sprintf("%s_%d", name, n+1)
			} else {
				seen[name] = 1
			}

			files = append(files, File{
				Name:    name + ".nap",
				Content: c.convertOperation(path, entry.method, entry.op, pathItem.Parameters),
			})
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no operations matched the filters")
	}

	files = append(files, File{
		Name:    PlaylistName,
		Content: c.buildPlaylist(doc, baseURL, files),
	})
	return files, nil
}

func (c *Converter) buildPlaylist(doc *openapi3.T, baseURL string, requests []File) string {
	var sb strings.Builder

	sb.WriteString("[meta]\n")
	title := "api"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}
	sb.WriteString("name = ")
	sb.WriteString(metaValue(title))
	sb.WriteString("\n")
	if doc.Info != nil && doc.Info.Version != "" {
		sb.WriteString("description = ")
		sb.WriteString(metaValue("Generated from OpenAPI, version " + doc.Info.Version))
		sb.WriteString("\n")
	}

	if baseURL != "" {
		sb.WriteString("\n[vars]\n")
		sb.WriteString("base_url = ")
		sb.WriteString(baseURL)
		sb.WriteString("\n")
	}

	sb.WriteString("\n[steps]\n")
	for _, f := range requests {
		sb.WriteString(f.Name)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (c *Converter) getBaseURL(doc *openapi3.T) string {
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		return doc.Servers[0].URL
	}
	return "http://localhost:3000"
}

func (c *Converter) shouldInclude(op *openapi3.Operation) bool {
	// Check operation ID filter
	if len(c.includeOnly) > 0 {
		found := false
		for _, id := range c.includeOnly {
			if op.OperationID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// Check tag filters
	if len(c.includeTags) > 0 {
		found := false
		for _, tag := range op.Tags {
			for _, includeTag := range c.includeTags {
				if tag == includeTag {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}

	// Check exclude tags
	if len(c.excludeTags) > 0 {
		for _, tag := range op.Tags {
			for _, excludeTag := range c.excludeTags {
				if tag == excludeTag {
					return false
				}
			}
		}
	}

	return true
}

func operationName(path, method string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return sanitizeName(op.OperationID)
	}
	return sanitizeName(strings.ToLower(method) + "_" + strings.ToLower(path))
}

func (c *Converter) convertOperation(path, method string, op *openapi3.Operation, pathParams openapi3.Parameters) string {
	var sb strings.Builder

	sb.WriteString("[meta]\n")
	name := op.Summary
	if name == "" {
		name = operationName(path, method, op)
	}
	sb.WriteString("name = ")
	sb.WriteString(metaValue(name))
	sb.WriteString("\n")

	if op.Description != "" {
		desc := strings.ReplaceAll(op.Description, "\n", " ")
		if len(desc) > 100 {
			desc = desc[:100] + "..."
		}
		sb.WriteString("description = ")
		sb.WriteString(metaValue(desc))
		sb.WriteString("\n")
	}

	if len(op.Tags) > 0 {
		sb.WriteString("tags = ")
		sb.WriteString(strings.Join(op.Tags, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString("\n[request]\n")
	sb.WriteString("method = ")
	sb.WriteString(method)
	sb.WriteString("\n")
	sb.WriteString("url = {{base_url}}")
	sb.WriteString(c.convertPathParams(path, op.Parameters, pathParams))

	// Query parameters
	allParams := append(pathParams, op.Parameters...)
	var query []string
	for _, paramRef := range allParams {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		param := paramRef.Value
		if param.In == "query" {
			query = append(query, param.Name+"="+queryValue(c.getParamExample(param)))
		}
	}
	if len(query) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(query, "&"))
	}
	sb.WriteString("\n")

	// Headers
	var headers []string
	for _, paramRef := range allParams {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		param := paramRef.Value
		if param.In == "header" {
			headers = append(headers, param.Name+" = "+c.getParamExample(param))
		}
	}
	if len(headers) > 0 {
		sb.WriteString("\n[request.headers]\n")
		for _, h := range headers {
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	}

	// Request body
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		contentType, body := c.generateRequestBody(op.RequestBody.Value)
		if body != "" {
			sb.WriteString("\n[request.body]\n")
			if contentType != "" {
				sb.WriteString("content-type = ")
				sb.WriteString(contentType)
				sb.WriteString("\n")
			}
			sb.WriteString("\"\"\"\n")
			sb.WriteString(body)
			sb.WriteString("\n\"\"\"\n")
		}
	}

	// Assertions
	if c.generateTests {
		if assertions := c.generateAssertions(op); assertions != "" {
			sb.WriteString("\n[assert]\n")
			sb.WriteString(assertions)
		}
	}

	return sb.String()
}

func (c *Converter) convertPathParams(path string, opParams, pathParams openapi3.Parameters) string {
	result := path

	allParams := append(pathParams, opParams...)
	for _, paramRef := range allParams {
		if paramRef == nil || paramRef.Value == nil {
			continue
		}
		param := paramRef.Value
		if param.In == "path" {
			// Replace {param} with {{param}}
			oldPattern := "{" + param.Name + "}"
			newPattern := "{{" + sanitizeName(param.Name) + "}}"
			result = strings.ReplaceAll(result, oldPattern, newPattern)
		}
	}

	return result
}

func (c *Converter) getParamExample(param *openapi3.Parameter) string {
	// Try to get example
	if param.Example != nil {
		return fmt.Sprintf("%v", param.Example)
	}

	// Try schema example
	if param.Schema != nil && param.Schema.Value != nil {
		schema := param.Schema.Value
		if schema.Example != nil {
			return fmt.Sprintf("%v", schema.Example)
		}

		if len(schema.Type.Slice()) > 0 {
			switch schema.Type.Slice()[0] {
			case "integer":
				return "1"
			case "number":
				return "1.0"
			case "boolean":
				return "true"
			case "string":
				switch schema.Format {
				case "date":
					return "2024-01-01"
				case "date-time":
					return "2024-01-01T00:00:00Z"
				case "email":
					return "user@example.com"
				case "uuid":
					return "123e4567-e89b-12d3-a456-426614174000"
				}
				return "example"
			}
		}
	}

	if s := sanitizeName(param.Name); s != "" {
		return "{{" + s + "}}"
	}
	return "example"
}

// queryValue escapes a generated query value, leaving placeholders intact so
// they stay interpolatable.
func queryValue(v string) string {
	if strings.HasPrefix(v, "{{") {
		return v
	}
	return url.QueryEscape(v)
}

// generateRequestBody returns a content type and sample body, preferring JSON.
func (c *Converter) generateRequestBody(reqBody *openapi3.RequestBody) (string, string) {
	for contentType, mediaType := range reqBody.Content {
		if strings.Contains(contentType, "json") && mediaType.Schema != nil {
			return "application/json", c.generateJSONFromSchema(mediaType.Schema.Value, 0)
		}
	}

	for contentType, mediaType := range reqBody.Content {
		if strings.Contains(contentType, "form") && mediaType.Schema != nil {
			return "application/x-www-form-urlencoded", c.generateFormFromSchema(mediaType.Schema.Value)
		}
	}

	return "", ""
}

func (c *Converter) generateJSONFromSchema(schema *openapi3.Schema, depth int) string {
	if schema == nil || depth > 5 {
		return "{}"
	}

	if len(schema.Type.Slice()) == 0 {
		return "{}"
	}

	switch schema.Type.Slice()[0] {
	case "object":
		var sb strings.Builder
		sb.WriteString("{\n")

		props := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			props = append(props, name)
		}
		sort.Strings(props)

		for i, name := range props {
			propSchema := schema.Properties[name]
			indent := strings.Repeat("  ", depth+1)
			sb.WriteString(indent)
			sb.WriteString("\"")
			sb.WriteString(name)
			sb.WriteString("\": ")

			if propSchema != nil && propSchema.Value != nil {
				sb.WriteString(c.generateJSONValue(propSchema.Value, depth+1))
			} else {
				sb.WriteString("null")
			}

			if i < len(props)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}

		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("}")
		return sb.String()

	case "array":
		if schema.Items != nil && schema.Items.Value != nil {
			item := c.generateJSONValue(schema.Items.Value, depth+1)
			return "[" + item + "]"
		}
		return "[]"

	default:
		return c.generateJSONValue(schema, depth)
	}
}

func (c *Converter) generateJSONValue(schema *openapi3.Schema, depth int) string {
	if schema == nil {
		return "null"
	}

	// Use example if available
	if schema.Example != nil {
		data, err := json.Marshal(schema.Example)
		if err == nil {
			return string(data)
		}
	}

	if len(schema.Type.Slice()) == 0 {
		return "null"
	}

	switch schema.Type.Slice()[0] {
	case "string":
		switch schema.Format {
		case "date":
			return "\"2024-01-01\""
		case "date-time":
			return "\"2024-01-01T00:00:00Z\""
		case "email":
			return "\"user@example.com\""
		case "uuid":
			return "\"123e4567-e89b-12d3-a456-426614174000\""
		}
		if len(schema.Enum) > 0 {
			return fmt.Sprintf("\"%v\"", schema.Enum[0])
		}
		return "\"example\""
	case "integer":
		if schema.Min != nil {
			return fmt.Sprintf("%.0f", *schema.Min)
		}
		return "1"
	case "number":
		if schema.Min != nil {
			return fmt.Sprintf("%v", *schema.Min)
		}
		return "1.0"
	case "boolean":
		return "true"
	case "array":
		if schema.Items != nil && schema.Items.Value != nil {
			item := c.generateJSONValue(schema.Items.Value, depth+1)
			return "[" + item + "]"
		}
		return "[]"
	case "object":
		return c.generateJSONFromSchema(schema, depth)
	default:
		return "null"
	}
}

func (c *Converter) generateFormFromSchema(schema *openapi3.Schema) string {
	if schema == nil || len(schema.Properties) == 0 {
		return ""
	}

	var parts []string
	for name, propSchema := range schema.Properties {
		value := "example"
		if propSchema != nil && propSchema.Value != nil {
			if propSchema.Value.Example != nil {
				value = fmt.Sprintf("%v", propSchema.Value.Example)
			}
		}
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

func (c *Converter) generateAssertions(op *openapi3.Operation) string {
	if op.Responses == nil {
		return ""
	}

	var sb strings.Builder

	// Find the lowest 2xx response for deterministic output
	codes := make([]string, 0, len(op.Responses.Map()))
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var (
		successCode string
		successResp *openapi3.Response
	)
	for _, code := range codes {
		respRef := op.Responses.Map()[code]
		if strings.HasPrefix(code, "2") && respRef != nil && respRef.Value != nil {
			successCode = code
			successResp = respRef.Value
			break
		}
	}

	if successCode == "" {
		sb.WriteString("status = 200\n")
		return sb.String()
	}

	sb.WriteString("status = ")
	sb.WriteString(successCode)
	sb.WriteString("\n")

	var jsonSchema *openapi3.Schema
	for contentType, mediaType := range successResp.Content {
		if strings.Contains(contentType, "json") {
			sb.WriteString("headers.Content-Type contains application/json\n")
			if mediaType.Schema != nil {
				jsonSchema = mediaType.Schema.Value
			}
			break
		}
	}

	// Require the documented top-level properties to be present
	if jsonSchema != nil {
		required := append([]string{}, jsonSchema.Required...)
		sort.Strings(required)
		for _, prop := range required {
			if !plainName(prop) {
				continue
			}
			sb.WriteString("body.")
			sb.WriteString(prop)
			sb.WriteString(" exists\n")
		}
	}

	return sb.String()
}

// plainName reports whether s is usable as a body path segment.
func plainName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// metaValue flattens a generated value so it survives the key = value grammar.
func metaValue(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.ReplaceAll(s, "#", "")
	return strings.TrimSpace(s)
}

func sanitizeName(name string) string {
	// Replace special characters with underscores
	result := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)

	// Remove consecutive underscores
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	result = strings.Trim(result, "_")

	return result
}
