package ast

type (
	UnitID    uint32
	DeclID    uint32
	RefID     uint32
	PayloadID uint32
)

const (
	NoUnitID    UnitID    = 0
	NoDeclID    DeclID    = 0
	NoRefID     RefID     = 0
	NoPayloadID PayloadID = 0
)

func (id UnitID) IsValid() bool    { return id != NoUnitID }
func (id DeclID) IsValid() bool    { return id != NoDeclID }
func (id RefID) IsValid() bool     { return id != NoRefID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
