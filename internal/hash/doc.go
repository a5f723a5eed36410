// Package hash provides the CRC32-Castagnoli (CRC32C) checksum used to guard
// artifact payloads and S3 uploads against corruption.
//
// CRC32C is an integrity check, not a content identity: fingerprints of
// corpora use package fingerprint.
//
//	checksum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
