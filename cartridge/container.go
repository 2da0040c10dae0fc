package cartridge

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// SectionType distinguishes a program blob from a raw asset payload.
type SectionType uint8

const (
	SectionProgram SectionType = iota
	SectionAsset
)

const maxSectionName = 64

// containerMagic distinguishes a multi-section app cartridge from a bare
// single-Program blob (which starts directly with Header.Magic instead).
const containerMagic uint32 = 0x4D464C43 // "MFLC" - "MathFlow Container"

// sectionEntry is one row of the section table: a name/type key plus the
// byte range of its payload within the file and an optional CRC32 for
// integrity checking (a supplement over the original's bare find_section
// scan, which trusts the file unconditionally).
type sectionEntry struct {
	Name     [maxSectionName]byte
	Type     uint8
	_        [3]byte
	Offset   uint64
	Size     uint64
	Checksum uint32
	_        [4]byte
}

// Section is an in-memory section ready to be written by WriteContainer.
type Section struct {
	Name string
	Type SectionType
	Data []byte
}

// WriteContainer packs sections into a single app cartridge: container
// magic, a section count, the section table, then every payload
// concatenated in order. Keyed lookup is by (name, type) at read time via
// FindSection, matching spec.md §4.9's find_section linear scan.
func WriteContainer(sections []Section) ([]byte, error) {
	var table bytes.Buffer
	var payloads bytes.Buffer

	offset := uint64(0)
	for _, s := range sections {
		entry := sectionEntry{
			Type:     uint8(s.Type),
			Offset:   offset,
			Size:     uint64(len(s.Data)),
			Checksum: crc32.ChecksumIEEE(s.Data),
		}
		copy(entry.Name[:], s.Name)
		if err := binary.Write(&table, binary.LittleEndian, entry); err != nil {
			return nil, errors.Wrap(err, "cartridge: write section entry")
		}
		payloads.Write(s.Data)
		offset += uint64(len(s.Data))
	}

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, containerMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, uint32(len(sections))); err != nil {
		return nil, err
	}
	out.Write(table.Bytes())
	out.Write(payloads.Bytes())
	return out.Bytes(), nil
}

// Container is a parsed section table over an in-memory cartridge file; the
// payload blob is read lazily by FindSection (the original's pread
// equivalent, here a byte-slice reslice since the whole file is resident).
type Container struct {
	entries  []sectionEntry
	payloads []byte
}

// ReadContainer parses a cartridge's section table.
func ReadContainer(data []byte) (*Container, error) {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "cartridge: read container magic")
	}
	if magic != containerMagic {
		return nil, ErrBadMagic
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "cartridge: read section count")
	}
	entries := make([]sectionEntry, count)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return nil, errors.Wrap(err, "cartridge: read section entry")
		}
	}
	payloads, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cartridge: read section payloads")
	}
	return &Container{entries: entries, payloads: payloads}, nil
}

// FindSection does a linear scan for (name, typ) and returns its payload
// slice, verifying the stored CRC32 — a mismatch means on-disk corruption.
func (c *Container) FindSection(name string, typ SectionType) ([]byte, bool, error) {
	for _, e := range c.entries {
		if SectionType(e.Type) != typ || cString(e.Name[:]) != name {
			continue
		}
		if e.Offset+e.Size > uint64(len(c.payloads)) {
			return nil, true, errors.Errorf("cartridge: section %q payload out of range", name)
		}
		data := c.payloads[e.Offset : e.Offset+e.Size]
		if crc32.ChecksumIEEE(data) != e.Checksum {
			return nil, true, errors.Errorf("cartridge: section %q failed checksum", name)
		}
		return data, true, nil
	}
	return nil, false, nil
}
