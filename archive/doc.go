// Package archive implements the VPAR container, a self-describing binary
// format for lossless reductions and cluster summaries.
//
// # Layout
//
// Every archive starts with a fixed 44-byte little-endian header:
//
//	offset  size  field
//	0       4     magic "VPAR"
//	4       2     format version
//	6       1     kind (reduction, clusters)
//	7       1     compression (none, lz4, zstd)
//	8       1     dtype
//	9       3     reserved, zero
//	12      4     dim
//	16      8     rows in the stored corpus
//	24      8     uncompressed payload size
//	32      8     stored payload size
//	40      4     CRC32C of bytes [0,40) and the stored payload
//
// The payload is deterministic CBOR holding the raw row bytes, their
// fingerprint, and the reduction map or cluster assignment. Reloading an
// archive yields bit-for-bit the corpus that was saved.
//
// # Usage
//
//	r, _ := reduce.Unique(c)
//	if err := archive.Save(ctx, store, "unique.vpar", r, archive.WithCompression(archive.CompressionZSTD)); err != nil {
//	    return err
//	}
//	back, err := archive.Load(ctx, store, "unique.vpar")
package archive
