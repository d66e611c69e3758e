// Package scanner finds sensitive-looking content in raw page markup.
//
// Three independent passes run over the text, in this order:
//   - Email addresses (Medium), de-duplicated within a page
//   - Developer markers such as TODO or FIXME (Low), one finding per matching line per keyword
//   - Dangerous keywords such as password or api_key (High), one finding per matching line per keyword
//
// The passes are deliberately naive pattern matches over raw markup, not an
// HTML-aware analysis. A password input field is the only suppressed case:
// a line containing both "password" and type="password" is not reported.
package scanner
