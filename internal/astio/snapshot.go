// Package astio reads and writes program snapshots: the serialized form of
// an ast.Builder produced by a frontend and consumed by the flattener.
//
// Ids inside a snapshot are 1-based positions in the corresponding list,
// 0 meaning "none". Source locations use the compiler's "start:length:index"
// notation with 0-based indexes into Files.
package astio

// SchemaVersion is bumped whenever the record layout changes.
const SchemaVersion = 1

type Snapshot struct {
	Schema int       `json:"schema" msgpack:"schema"`
	Files  []string  `json:"files,omitempty" msgpack:"files,omitempty"`
	Units  []UnitRec `json:"units" msgpack:"units"`
	Decls  []DeclRec `json:"decls" msgpack:"decls"`
	Refs   []RefRec  `json:"refs,omitempty" msgpack:"refs,omitempty"`
}

type UnitRec struct {
	Name  string   `json:"name" msgpack:"name"`
	Path  string   `json:"path,omitempty" msgpack:"path,omitempty"`
	Src   string   `json:"src,omitempty" msgpack:"src,omitempty"`
	Items []uint32 `json:"items,omitempty" msgpack:"items,omitempty"`
}

type DeclRec struct {
	Kind string `json:"kind" msgpack:"kind"`
	Name string `json:"name" msgpack:"name"`
	Src  string `json:"src,omitempty" msgpack:"src,omitempty"`
	// Exactly one of Unit and Parent is set.
	Unit    uint32   `json:"unit,omitempty" msgpack:"unit,omitempty"`
	Parent  uint32   `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Members []uint32 `json:"members,omitempty" msgpack:"members,omitempty"`
	Refs    []uint32 `json:"refs,omitempty" msgpack:"refs,omitempty"`

	Contract *ContractRec `json:"contract,omitempty" msgpack:"contract,omitempty"`
	Import   *ImportRec   `json:"import,omitempty" msgpack:"import,omitempty"`
	Pragma   string       `json:"pragma,omitempty" msgpack:"pragma,omitempty"`
}

type ContractRec struct {
	Kind  string   `json:"kind" msgpack:"kind"`
	Bases []uint32 `json:"bases,omitempty" msgpack:"bases,omitempty"`
}

type ImportRec struct {
	Path    string      `json:"path" msgpack:"path"`
	Unit    uint32      `json:"unit" msgpack:"unit"`
	Symbols []SymbolRec `json:"symbols,omitempty" msgpack:"symbols,omitempty"`
}

type SymbolRec struct {
	Foreign uint32 `json:"foreign" msgpack:"foreign"`
	Local   string `json:"local,omitempty" msgpack:"local,omitempty"`
}

type RefRec struct {
	Kind     string `json:"kind" msgpack:"kind"`
	Name     string `json:"name" msgpack:"name"`
	Src      string `json:"src,omitempty" msgpack:"src,omitempty"`
	Target   uint32 `json:"target,omitempty" msgpack:"target,omitempty"`
	Base     uint32 `json:"base,omitempty" msgpack:"base,omitempty"`
	Owner    uint32 `json:"owner" msgpack:"owner"`
	Detached bool   `json:"detached,omitempty" msgpack:"detached,omitempty"`
}
