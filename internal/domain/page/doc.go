// Package page builds the full record of a fetched page: the plain-text
// extraction from the content package plus sanitized markup, social and
// standard meta tags, and the heading outline.
//
// Analyze performs exactly one fetch; AnalyzeHTML works on markup the
// caller already has.
package page
