// Package crxtest builds extension archives for tests.
package crxtest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Zip returns a zip archive holding files. Names ending in "/" become
// directory entries. Entries are written in lexical order.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		require.NoError(t, err)
		if name[len(name)-1] == '/' {
			continue
		}
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// CRX3 wraps payload in a version 3 header carrying header as the signed header.
func CRX3(payload, header []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("Cr24")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(3))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(header)))
	buf.Write(header)
	buf.Write(payload)
	return buf.Bytes()
}

// CRX2 wraps payload in a version 2 header with the given key and signature.
func CRX2(payload, key, sig []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("Cr24")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(key)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(sig)))
	buf.Write(key)
	buf.Write(sig)
	buf.Write(payload)
	return buf.Bytes()
}

// Extension returns a CRX3 package holding files.
func Extension(t testing.TB, files map[string]string) []byte {
	t.Helper()
	return CRX3(Zip(t, files), []byte("\x12\x00signed-header"))
}
