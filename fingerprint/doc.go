// Package fingerprint computes content identities for byte sequences.
//
// A Fingerprint is a 256-bit digest over exactly the bytes it is given:
// no normalization, no reordering, no reinterpretation. Two byte sequences
// that differ anywhere (including numeric representation or byte order)
// produce different fingerprints with overwhelming probability.
//
// # Algorithms
//
//   - SHA256 (default): crypto/sha256, the digest recorded in manifests.
//   - BLAKE3: github.com/zeebo/blake3, 32-byte output.
//
// # Usage
//
//	fp := fingerprint.Sum(c.Bytes())
//	fmt.Println(fp)           // sha256:5f1c...
//	fp.Hex()                  // 5f1c...
//
//	h := fingerprint.New(fingerprint.BLAKE3)
//	h.Write(chunk1)
//	h.Write(chunk2)
//	fp = h.Sum()
package fingerprint
