// Package output formats review reports for display or machine consumption.
//
// Supported formats:
//   - text    : terminal output styled with lipgloss (default)
//   - json    : the full structured report
//   - markdown: findings grouped per file
//   - github  : a pull request comment body
//   - sarif   : SARIF v2.1.0 for code scanning upload
//   - pretty  : the markdown report rendered with glamour
//
// Use [GetWriter] to obtain a [Writer] for a format name, or [WriteReport] to
// write straight to a file or stdout.
package output
