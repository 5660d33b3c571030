package models

import "gorm.io/datatypes"

// Acte is a legal instrument (assembly minutes, deed) justifying movements.
type Acte struct {
	ID          int             `gorm:"primaryKey" json:"id"`
	CodeActe    string          `gorm:"size:50;not null;index" json:"code_acte"`
	DateActe    *datatypes.Date `gorm:"type:date" json:"date_acte,omitempty"`
	LibelleActe *string         `gorm:"size:255" json:"libelle_acte,omitempty"`
	Provisoire  bool            `gorm:"not null;default:false" json:"provisoire"`

	IDStructure *int       `gorm:"column:id_structure;index" json:"id_structure,omitempty"`
	Structure   *Structure `gorm:"foreignKey:IDStructure;constraint:OnDelete:SET NULL" json:"-"`
}

func (Acte) TableName() string { return "actes" }

type ActePatch struct {
	CodeActe    Field[string]
	DateActe    Field[datatypes.Date]
	LibelleActe Field[string]
	Provisoire  Field[bool]
	IDStructure Field[int] `gorm:"column:id_structure"`
}

// Mouvement records an acquisition (Sens true) or a disposal of shares.
type Mouvement struct {
	ID            int             `gorm:"primaryKey" json:"id"`
	DateOperation *datatypes.Date `gorm:"type:date" json:"date_operation,omitempty"`
	Sens          bool            `gorm:"not null" json:"sens"`
	NbParts       int             `gorm:"not null;default:0" json:"nb_parts"`

	IDPersonne          int                `gorm:"column:id_personne;not null;index" json:"id_personne"`
	Personne            *Personne          `gorm:"foreignKey:IDPersonne;constraint:OnDelete:RESTRICT" json:"-"`
	IDActe              *int               `gorm:"column:id_acte;index" json:"id_acte,omitempty"`
	Acte                *Acte              `gorm:"foreignKey:IDActe;constraint:OnDelete:RESTRICT" json:"-"`
	IDTypeApport        *int               `gorm:"column:id_type_apport" json:"id_type_apport,omitempty"`
	TypeApport          *TypeApport        `gorm:"foreignKey:IDTypeApport" json:"-"`
	IDTypeRemboursement *int               `gorm:"column:id_type_remboursement" json:"id_type_remboursement,omitempty"`
	TypeRemboursement   *TypeRemboursement `gorm:"foreignKey:IDTypeRemboursement" json:"-"`
}

func (Mouvement) TableName() string { return "mouvements" }

type MouvementPatch struct {
	DateOperation       Field[datatypes.Date]
	Sens                Field[bool]
	NbParts             Field[int]
	IDPersonne          Field[int] `gorm:"column:id_personne"`
	IDActe              Field[int] `gorm:"column:id_acte"`
	IDTypeApport        Field[int] `gorm:"column:id_type_apport"`
	IDTypeRemboursement Field[int] `gorm:"column:id_type_remboursement"`
}

// NumeroPart is one numbered share. Version guards concurrent transfers.
type NumeroPart struct {
	ID        int  `gorm:"primaryKey" json:"id"`
	NumPart   int  `gorm:"not null;index;uniqueIndex:idx_numeros_parts_structure_num,priority:2" json:"num_part"`
	Termine   bool `gorm:"not null;default:false" json:"termine"`
	Distribue bool `gorm:"not null;default:false" json:"distribue"`
	Etat      int  `gorm:"not null;default:0" json:"etat"`
	Version   int  `gorm:"not null;default:0" json:"version"`

	IDPersonne  int        `gorm:"column:id_personne;not null;index" json:"id_personne"`
	Personne    *Personne  `gorm:"foreignKey:IDPersonne;constraint:OnDelete:RESTRICT" json:"-"`
	IDMouvement *int       `gorm:"column:id_mouvement;index" json:"id_mouvement,omitempty"`
	Mouvement   *Mouvement `gorm:"foreignKey:IDMouvement;constraint:OnDelete:RESTRICT" json:"-"`
	IDStructure *int       `gorm:"column:id_structure;index;uniqueIndex:idx_numeros_parts_structure_num,priority:1" json:"id_structure,omitempty"`
	Structure   *Structure `gorm:"foreignKey:IDStructure;constraint:OnDelete:SET NULL" json:"-"`
}

func (NumeroPart) TableName() string { return "numeros_parts" }

type NumeroPartPatch struct {
	NumPart     Field[int]
	Termine     Field[bool]
	Distribue   Field[bool]
	Etat        Field[int]
	IDPersonne  Field[int] `gorm:"column:id_personne"`
	IDMouvement Field[int] `gorm:"column:id_mouvement"`
	IDStructure Field[int] `gorm:"column:id_structure"`
}
