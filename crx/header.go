package crx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/crx-mirror/errors"
)

const (
	crxMagic = "Cr24"

	mimeZip = "application/zip"
)

// Format describes the container of a downloaded archive.
type Format string

const (
	FormatCRX2 Format = "crx2"
	FormatCRX3 Format = "crx3"
	FormatZip  Format = "zip"
)

// isZip reports whether data sniffs as zip or a zip-derived format
// (jar, apk, ...).
func isZip(data []byte) (*mimetype.MIME, bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mimeZip) {
			return mt, true
		}
	}
	return mt, false
}

// payload returns the zip payload of data and the container format.
// CRX files are recognised by their magic; both header versions are
// stripped before the payload is sniffed.
func payload(data []byte) ([]byte, Format, error) {
	format := FormatZip
	if bytes.HasPrefix(data, []byte(crxMagic)) {
		var err error
		if data, format, err = stripHeader(data); err != nil {
			return nil, "", err
		}
	}

	if mt, ok := isZip(data); !ok {
		return nil, "", errors.Newf(errors.CodeInvalidArchive, "unsupported archive type %s", mt.String()).
			WithContext("mime", mt.String()).
			WithContext("format", string(format))
	}
	return data, format, nil
}

// stripHeader removes the CRX header in front of the zip payload.
//
// Version 2: magic, version, public key length, signature length, key, signature.
// Version 3: magic, version, header length, protobuf header.
func stripHeader(data []byte) ([]byte, Format, error) {
	if len(data) < 12 || string(data[:4]) != crxMagic {
		return nil, "", errors.New(errors.CodeInvalidArchive, "truncated CRX header")
	}

	var (
		offset uint64
		format Format
	)

	version := binary.LittleEndian.Uint32(data[4:8])
	switch version {
	case 2:
		if len(data) < 16 {
			return nil, "", errors.New(errors.CodeInvalidArchive, "truncated CRX2 header")
		}
		keyLen := binary.LittleEndian.Uint32(data[8:12])
		sigLen := binary.LittleEndian.Uint32(data[12:16])
		offset = 16 + uint64(keyLen) + uint64(sigLen)
		format = FormatCRX2
	case 3:
		headerLen := binary.LittleEndian.Uint32(data[8:12])
		offset = 12 + uint64(headerLen)
		format = FormatCRX3
	default:
		return nil, "", errors.Newf(errors.CodeInvalidArchive, "unsupported CRX version %d", version).
			WithContext("crx_version", version)
	}

	if offset > uint64(len(data)) {
		return nil, "", errors.New(errors.CodeInvalidArchive,
			fmt.Sprintf("CRX header length %d exceeds archive size %d", offset, len(data)))
	}

	return data[offset:], format, nil
}
