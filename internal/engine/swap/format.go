package swap

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"path/filepath"
)

// Magic identifies the format and its version. Bumping the version
// means a new magic; unknown magic is ErrCorrupted (non-fatal: the
// buffer opens without replay).
const Magic = "SMSHSWP1"

// maxFrameLen rejects absurd length prefixes from torn writes before
// a large allocation happens.
const maxFrameLen = 64 << 20

// Header binds a swap file to the document it journals.
type Header struct {
	Hash      []byte // content hash of the file as of the last save
	Path      string // document path at open time
	CreatedAt int64  // unix seconds
}

// SwapPath derives the swap file path for a document:
// /dir/name.ext → /dir/.name.ext.smash-swap.
func SwapPath(original string) string {
	dir, name := filepath.Split(original)
	return filepath.Join(dir, "."+name+".smash-swap")
}

// WriteHeader writes the file header. All integers little-endian.
func WriteHeader(w io.Writer, h Header) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	if len(h.Hash) > 0xFFFF || len(h.Path) > 0xFFFF {
		return fmt.Errorf("%w: oversized header field", ErrCorrupted)
	}
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(len(h.Hash)))
	if _, err := w.Write(u16[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.Hash); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(u16[:], uint16(len(h.Path)))
	if _, err := w.Write(u16[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, h.Path); err != nil {
		return err
	}
	var i64 [8]byte
	binary.LittleEndian.PutUint64(i64[:], uint64(h.CreatedAt))
	_, err := w.Write(i64[:])
	return err
}

// ReadHeader parses and validates the file header.
func ReadHeader(r io.Reader) (Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Header{}, fmt.Errorf("%w: short magic: %v", ErrCorrupted, err)
	}
	if string(magic) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupted, magic)
	}

	var h Header
	var u16 [2]byte
	if _, err := io.ReadFull(r, u16[:]); err != nil {
		return Header{}, fmt.Errorf("%w: short hash length", ErrCorrupted)
	}
	h.Hash = make([]byte, binary.LittleEndian.Uint16(u16[:]))
	if _, err := io.ReadFull(r, h.Hash); err != nil {
		return Header{}, fmt.Errorf("%w: short hash", ErrCorrupted)
	}
	if _, err := io.ReadFull(r, u16[:]); err != nil {
		return Header{}, fmt.Errorf("%w: short path length", ErrCorrupted)
	}
	path := make([]byte, binary.LittleEndian.Uint16(u16[:]))
	if _, err := io.ReadFull(r, path); err != nil {
		return Header{}, fmt.Errorf("%w: short path", ErrCorrupted)
	}
	h.Path = string(path)
	var i64 [8]byte
	if _, err := io.ReadFull(r, i64[:]); err != nil {
		return Header{}, fmt.Errorf("%w: short timestamp", ErrCorrupted)
	}
	h.CreatedAt = int64(binary.LittleEndian.Uint64(i64[:]))
	return h, nil
}

// WriteFrame appends one length-prefixed, CRC-trailed payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(payload)))
	if _, err := w.Write(u32[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], crc32.ChecksumIEEE(payload))
	_, err := w.Write(u32[:])
	return err
}

// ReadFrame reads the next frame. io.EOF (clean end) is returned
// as-is; torn or corrupt frames return ErrCorrupted.
func ReadFrame(r io.Reader) ([]byte, error) {
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: torn frame length", ErrCorrupted)
	}
	length := binary.LittleEndian.Uint32(u32[:])
	if length > maxFrameLen {
		return nil, fmt.Errorf("%w: frame length %d", ErrCorrupted, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: torn frame payload", ErrCorrupted)
	}
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("%w: torn frame checksum", ErrCorrupted)
	}
	if binary.LittleEndian.Uint32(u32[:]) != crc32.ChecksumIEEE(payload) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}
	return payload, nil
}
