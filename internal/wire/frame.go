// File: internal/wire/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream framing: every message is a 4-byte big-endian length followed by
// that many payload bytes. Datagrams carry no prefix at all.

package wire

import "encoding/binary"

const (
	// HeaderSize is the length prefix size on stream transports.
	HeaderSize = 4
	// RawChunkSize caps a single read on a raw (unframed) stream connection.
	RawChunkSize = 512
)

// PutHeader writes n into b[:HeaderSize] in network byte order.
func PutHeader(b []byte, n uint32) {
	binary.BigEndian.PutUint32(b, n)
}

// Header decodes a length prefix from b[:HeaderSize].
func Header(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Append appends the framed form of payload to dst.
func Append(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}
