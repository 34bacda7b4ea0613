// Package env resolves the variables a request runs with.
//
// Variables come from five layers, lowest to highest: the file's own [vars]
// defaults, the .env base file, the .env.<name> file for the active
// environment, the .env.local secrets file, and caller-supplied overrides.
// Load merges them; Interpolate substitutes {{name}} placeholders into
// request text.
package env
