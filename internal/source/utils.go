package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

var (
	crlf = []byte("\r\n")
	bom  = []byte{0xEF, 0xBB, 0xBF}
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlf) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlf, []byte("\n")), true
}

func removeBOM(content []byte) ([]byte, bool) {
	rest, ok := bytes.CutPrefix(content, bom)
	return rest, ok
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte("\n")))
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) // #nosec G115 -- file size checked by Add
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// number of newlines strictly before off
	line, _ := slices.BinarySearch(lineIdx, off)
	var start uint32
	if line > 0 {
		start = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line + 1), Col: off - start + 1} // #nosec G115
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
