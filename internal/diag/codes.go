package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Семантические
	SemaInfo              Code = 3000
	SemaIllegalTypeCycle  Code = 3001
	SemaUnresolvedType    Code = 3002
	SemaDuplicateDecl     Code = 3003
	SemaPolymorphicLayout Code = 3004
	SemaDependencyFailed  Code = 3005

	// I/O
	IOLoadFileError Code = 4001

	// Declaration fixtures
	ProjInfo            Code = 5000
	ProjBadFixture      Code = 5001
	ProjUnknownKind     Code = 5002
	ProjBadTypeExpr     Code = 5003
	ProjBadAttribute    Code = 5004
	ProjMissingKey      Code = 5005
	ProjSnapshotVersion Code = 5006

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		SemaInfo:              "Semantic information",
		SemaIllegalTypeCycle:  "Illegal type declaration cycle",
		SemaUnresolvedType:    "Unresolved type name",
		SemaDuplicateDecl:     "Duplicate declaration",
		SemaPolymorphicLayout: "Layout of a polymorphic type",
		SemaDependencyFailed:  "Declaration depends on a broken declaration",
		IOLoadFileError:       "I/O load file error",
		ProjInfo:              "Project information",
		ProjBadFixture:        "Malformed declaration file",
		ProjUnknownKind:       "Unknown declaration kind",
		ProjBadTypeExpr:       "Malformed type expression",
		ProjBadAttribute:      "Invalid declaration attribute",
		ProjMissingKey:        "Missing required key",
		ProjSnapshotVersion:   "Incompatible snapshot version",
		ObsInfo:               "Observability information",
		ObsTimings:            "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
