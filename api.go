package flate

import (
	"hash"

	"github.com/chronos-tachyon/zipflate/internal/adler32"
	"github.com/chronos-tachyon/zipflate/internal/crc32"
)

// Deflate compresses data as a raw DEFLATE stream (RFC 1951).
func Deflate(data []byte, opts ...Option) ([]byte, error) {
	return encodeOneShot(data, append(opts, WithFormat(RawFormat)))
}

// Inflate decompresses a raw DEFLATE stream (RFC 1951).
func Inflate(data []byte, opts ...Option) ([]byte, error) {
	return decodeOneShot(data, append(opts, WithFormat(RawFormat)))
}

// Zlib compresses data as a zlib stream (RFC 1950).
func Zlib(data []byte, opts ...Option) ([]byte, error) {
	return encodeOneShot(data, append(opts, WithFormat(ZlibFormat)))
}

// Unzlib decompresses a zlib stream (RFC 1950).
func Unzlib(data []byte, opts ...Option) ([]byte, error) {
	return decodeOneShot(data, append(opts, WithFormat(ZlibFormat)))
}

// Gzip compresses data as a gzip stream (RFC 1952).
func Gzip(data []byte, opts ...Option) ([]byte, error) {
	return encodeOneShot(data, append(opts, WithFormat(GZIPFormat)))
}

// Gunzip decompresses a gzip stream (RFC 1952).
func Gunzip(data []byte, opts ...Option) ([]byte, error) {
	return decodeOneShot(data, append(opts, WithFormat(GZIPFormat)))
}

func encodeOneShot(data []byte, opts []Option) ([]byte, error) {
	enc := NewEncoder(opts...)
	if _, err := enc.Write(data); err != nil {
		return nil, err
	}
	return enc.Close()
}

func decodeOneShot(data []byte, opts []Option) ([]byte, error) {
	dec := NewDecoder(opts...)
	return dec.Decode(data)
}

// CRC32 computes the CRC-32 (IEEE 802.3, polynomial 0xEDB88320) checksum of
// data in a single call.
func CRC32(data []byte) uint32 {
	return crc32.Update(0, data)
}

// Adler32 computes the Adler-32 (RFC 1950) checksum of data in a single
// call.
func Adler32(data []byte) uint32 {
	return adler32.Checksum(data)
}

// NewCRC32 returns a streaming hash.Hash32 computing the CRC-32 checksum
// used by gzip framing and by ZIP entry integrity verification.
func NewCRC32() hash.Hash32 {
	return crc32.New()
}

// NewAdler32 returns a streaming hash.Hash32 computing the Adler-32
// checksum used by zlib framing.
func NewAdler32() hash.Hash32 {
	return adler32.New()
}
