// Package conv converts between integer widths with bounds checks.
//
// Archive headers and .npy shapes carry fixed-width counts that come from
// untrusted files. Every failed conversion wraps ErrOverflow.
package conv
