package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// I/O
	IOInfo          Code = 1000
	IOReadFailed    Code = 1001
	IOWriteFailed   Code = 1002
	IOUnknownFormat Code = 1003

	// Snapshot decoding
	SnapInfo           Code = 3000
	SnapDecodeFailed   Code = 3001
	SnapSchemaMismatch Code = 3002
	SnapBadID          Code = 3003
	SnapBadKind        Code = 3004
	SnapBadScope       Code = 3005
	SnapBadSpan        Code = 3006
	SnapUnknownUnit    Code = 3007
	SnapDuplicateItem  Code = 3008
	SnapNameNotNFC     Code = 3009

	// Flattening
	FlatInfo             Code = 5000
	FlatRenamed          Code = 5001
	FlatInheritanceCycle Code = 5002
	FlatInvariant        Code = 5003
	FlatForeignBase      Code = 5004
	FlatAliasCollapsed   Code = 5005
	FlatVersionMismatch  Code = 5006
	FlatBadPragma        Code = 5007
	FlatVerifyFailed     Code = 5008
	FlatTimings          Code = 5009

	// Manifest
	ManInfo            Code = 6000
	ManNotFound        Code = 6001
	ManParseFailed     Code = 6002
	ManNoBundles       Code = 6003
	ManDuplicateBundle Code = 6004
	ManBadFormat       Code = 6005
	ManMissingSnapshot Code = 6006
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		IOInfo:               "I/O information",
		IOReadFailed:         "Cannot read input",
		IOWriteFailed:        "Cannot write output",
		IOUnknownFormat:      "Unknown snapshot format",
		SnapInfo:             "Snapshot information",
		SnapDecodeFailed:     "Malformed snapshot",
		SnapSchemaMismatch:   "Unsupported snapshot schema",
		SnapBadID:            "Dangling id in snapshot",
		SnapBadKind:          "Unknown kind in snapshot",
		SnapBadScope:         "Malformed scope in snapshot",
		SnapBadSpan:          "Malformed source location",
		SnapUnknownUnit:      "Unknown unit",
		SnapDuplicateItem:    "Declaration listed twice",
		SnapNameNotNFC:       "Name is not in NFC form",
		FlatInfo:             "Flattening information",
		FlatRenamed:          "Declaration renamed",
		FlatInheritanceCycle: "Inheritance cycle",
		FlatInvariant:        "Malformed declaration scope",
		FlatForeignBase:      "Base contract outside merged units",
		FlatAliasCollapsed:   "Alias-qualified access collapsed",
		FlatVersionMismatch:  "Compiler version does not satisfy pragmas",
		FlatBadPragma:        "Unparsable version pragma",
		FlatVerifyFailed:     "Flattened unit failed verification",
		FlatTimings:          "Bundle timings",
		ManInfo:              "Manifest information",
		ManNotFound:          "Manifest not found",
		ManParseFailed:       "Malformed manifest",
		ManNoBundles:         "Manifest declares no bundles",
		ManDuplicateBundle:   "Duplicate bundle name",
		ManBadFormat:         "Unknown output format",
		ManMissingSnapshot:   "Bundle has no snapshot",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SNP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("FLT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("MAN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
