// Package npy reads and writes NumPy .npy files (format versions 1.0 and
// 2.0) as corpora.
//
// Supported arrays are little-endian <f4, <f8, <i4 and <i8 in C order with
// one or two dimensions. A 1-D array of length n is read as n rows of
// dimension 1. The data section is used as the corpus buffer unchanged.
package npy
