package source

// FileID indexes FileSet.files.
type FileID uint32

// FileFlags records how Load changed the bytes on disk.
type FileFlags uint8

const (
	FileVirtual FileFlags = 1 << iota // added from memory
	FileHadBOM
	FileNormalizedCRLF
)

// File is one loaded declaration file. Content is never modified after Add.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	// Hash is the SHA-256 of Content; snapshot cache keys start from it.
	Hash  [32]byte
	Flags FileFlags
}

// Text returns the bytes under sp, clamped to the file.
func (f *File) Text(sp Span) string {
	if f == nil || sp.File != f.ID {
		return ""
	}
	n := uint32(len(f.Content)) // #nosec G115 -- checked in Add
	start, end := min(sp.Start, n), min(sp.End, n)
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}
