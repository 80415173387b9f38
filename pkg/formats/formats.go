// Package formats provides parsers for model file formats.
package formats
