package testsupport

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Trillig is keyed by an int.
type Trillig struct {
	bun.BaseModel `bun:"table:trilligs,alias:trillig"`

	Id          int    `bun:"id,pk" json:"id"`
	Name        string `bun:"name" json:"name"`
	BrotherName string `bun:"brother_name" json:"brother_name"`
}

func (t Trillig) EntityKey() int { return t.Id }

// Brillig is keyed by a string.
type Brillig struct {
	bun.BaseModel `bun:"table:brilligs,alias:brillig"`

	Id    string `bun:"id,pk,type:varchar(64)" json:"id"`
	Heads int    `bun:"heads" json:"heads"`
	Teeth int    `bun:"teeth" json:"teeth"`
}

func (b Brillig) EntityKey() string { return b.Id }

// Moamrath is keyed by a UUID stored as text.
type Moamrath struct {
	bun.BaseModel `bun:"table:moamraths,alias:moamrath"`

	Id    uuid.UUID `bun:"id,pk,type:varchar(36)" json:"id"`
	Sound string    `bun:"sound" json:"sound"`
	Legs  int       `bun:"legs" json:"legs"`
}

func (m Moamrath) EntityKey() uuid.UUID { return m.Id }

// MoamrathIDs are the seeded Moamrath keys in seed order.
var MoamrathIDs = []uuid.UUID{
	uuid.MustParse("EFED4F70-8B1A-4BB3-B14B-B6EA2EEE2267"),
	uuid.MustParse("323A3F72-3DAB-422B-A306-8E155CE1F61A"),
	uuid.MustParse("8299D594-0AA4-4D33-8EB2-4557A2221AF8"),
	uuid.MustParse("155C1269-5D13-4E83-8F0B-34B8B2B5FAE1"),
	uuid.MustParse("ABABF0EA-4128-4830-8471-B634585145D9"),
}
