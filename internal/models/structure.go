package models

// StructureKind is the legal kind of a Structure.
type StructureKind int

const (
	// KindAll disables kind filtering in listings.
	KindAll         StructureKind = 0
	KindGFA         StructureKind = 2
	KindAssociation StructureKind = 5
	KindTSL         StructureKind = 6
)

// Structure is a legal entity issuing shares: the cooperative land group (GFA),
// the tenant trust (TSL/SCTL) or an association.
type Structure struct {
	ID            int           `gorm:"primaryKey" json:"id"`
	NomStructure  string        `gorm:"size:100;not null" json:"nom_structure"`
	TypeStructure StructureKind `gorm:"not null;default:2;index" json:"type_structure"`
	GFA           *string       `gorm:"column:gfa;size:50" json:"gfa,omitempty"`
}

func (Structure) TableName() string { return "structures" }

type StructurePatch struct {
	NomStructure  Field[string]
	TypeStructure Field[StructureKind]
	GFA           Field[string] `gorm:"column:gfa"`
}

// TypeApport is a kind of capital contribution (cash, in kind...).
type TypeApport struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	Libelle string `gorm:"size:100;not null" json:"libelle"`
}

func (TypeApport) TableName() string { return "types_apport" }

// TypeRemboursement is a kind of share repayment.
type TypeRemboursement struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	Libelle string `gorm:"size:100;not null" json:"libelle"`
}

func (TypeRemboursement) TableName() string { return "types_remboursement" }

type LibellePatch struct {
	Libelle Field[string]
}
