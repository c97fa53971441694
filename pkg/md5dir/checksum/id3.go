package checksum

import (
	"bytes"
	"io"
)

// ID3 region constants. See https://id3.org for the tag format.
const (
	id3v1Size     = 128
	id3v2Header   = 10
	id3v2Footer   = 10
	id3v2FlagFoot = 1 << 4
)

var (
	id3v1Marker = []byte("TAG")
	id3v2Marker = []byte("ID3")
)

// audioRange returns the [start, finish) byte range of r that excludes a
// leading ID3v2 tag and a trailing ID3v1 tag. size is the total file size.
// A malformed or oversized ID3v2 size field clamps to the available range
// rather than producing a negative-length region.
func audioRange(r io.ReadSeeker, size int64) (start, finish int64, err error) {
	finish = size

	// ID3v1: fixed 128-byte block at EOF beginning with "TAG".
	if size >= id3v1Size {
		if _, err := r.Seek(-id3v1Size, io.SeekEnd); err != nil {
			return 0, 0, err
		}
		marker := make([]byte, 3)
		if _, err := io.ReadFull(r, marker); err != nil {
			return 0, 0, err
		}
		if bytes.Equal(marker, id3v1Marker) {
			finish -= id3v1Size
		}
	}

	// ID3v2: 10-byte header at offset 0, "ID3" + 2 version bytes + 1 flags
	// byte + 4-byte synchsafe body size. Flag bit 4 adds a 10-byte footer.
	if size >= id3v2Header {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return 0, 0, err
		}
		header := make([]byte, id3v2Header)
		if _, err := io.ReadFull(r, header); err != nil {
			return 0, 0, err
		}
		if bytes.Equal(header[:3], id3v2Marker) {
			start = id3v2Header + synchsafe(header[6:10])
			if header[5]&id3v2FlagFoot != 0 {
				start += id3v2Footer
			}
		}
	}

	if start > finish {
		start = finish
	}
	return start, finish, nil
}

// synchsafe decodes a 4-byte synchsafe integer: 7 bits per byte, high bit
// of each byte ignored.
func synchsafe(b []byte) int64 {
	return int64(b[0]&0x7f)<<21 | int64(b[1]&0x7f)<<14 | int64(b[2]&0x7f)<<7 | int64(b[3]&0x7f)
}
