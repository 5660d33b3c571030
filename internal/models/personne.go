package models

import "strings"

// Personne is a shareholder, natural person or legal entity.
type Personne struct {
	ID       int     `gorm:"primaryKey" json:"id"`
	Civilite *string `gorm:"size:20" json:"civilite,omitempty"`
	Nom      string  `gorm:"size:100;not null;index" json:"nom"`
	Prenom   *string `gorm:"size:100" json:"prenom,omitempty"`

	Adresse    *string `gorm:"size:255" json:"adresse,omitempty"`
	Adresse2   *string `gorm:"column:adresse2;size:255" json:"adresse2,omitempty"`
	CodePostal *string `gorm:"size:15" json:"code_postal,omitempty"`
	Ville      *string `gorm:"size:100" json:"ville,omitempty"`

	Tel  *string `gorm:"size:50" json:"tel,omitempty"`
	Port *string `gorm:"size:50" json:"port,omitempty"`
	Fax  *string `gorm:"size:50" json:"fax,omitempty"`
	Mail *string `gorm:"size:255" json:"mail,omitempty"`

	Comment *string `gorm:"type:text" json:"comment,omitempty"`
	Divers  *string `gorm:"type:text" json:"divers,omitempty"`

	// Status flags
	NPAI         bool `gorm:"column:npai;not null;default:false" json:"npai"`
	Decede       bool `gorm:"not null;default:false" json:"decede"`
	CR           bool `gorm:"column:cr;not null;default:false" json:"cr"`
	PasConvocAG  bool `gorm:"column:pas_convoc_ag;not null;default:false" json:"pas_convoc_ag"`
	PasConvocTSL bool `gorm:"column:pas_convoc_tsl;not null;default:false" json:"pas_convoc_tsl"`
	Termine      bool `gorm:"not null;default:false" json:"termine"`

	// Membership flags
	Fondateur  bool `gorm:"not null;default:false" json:"fondateur"`
	DeDroit    bool `gorm:"not null;default:false" json:"de_droit"`
	Adherent   bool `gorm:"not null;default:false" json:"adherent"`
	MisDoffice bool `gorm:"not null;default:false" json:"mis_doffice"`

	EstPersonneMorale bool `gorm:"not null;default:false" json:"est_personne_morale"`
	DcdNotarie        bool `gorm:"not null;default:false" json:"dcd_notarie"`
	Apport            bool `gorm:"not null;default:false" json:"apport"`
	CNI               bool `gorm:"column:cni;not null;default:false" json:"cni"`

	IDStructure      *int       `gorm:"column:id_structure;index" json:"id_structure,omitempty"`
	Structure        *Structure `gorm:"foreignKey:IDStructure;constraint:OnDelete:SET NULL" json:"-"`
	IDPersonneMorale *int       `gorm:"column:id_personne_morale;index" json:"id_personne_morale,omitempty"`
	PersonneMorale   *Personne  `gorm:"foreignKey:IDPersonneMorale;constraint:OnDelete:SET NULL" json:"-"`
}

func (Personne) TableName() string { return "personnes" }

// DisplayName joins surname and first name.
func (p *Personne) DisplayName() string {
	return FullName(p.Nom, p.Prenom)
}

// FullName trims "nom prenom", tolerating a missing first name.
func FullName(nom string, prenom *string) string {
	if prenom == nil {
		return strings.TrimSpace(nom)
	}
	return strings.TrimSpace(nom + " " + *prenom)
}

type PersonnePatch struct {
	Civilite   Field[string]
	Nom        Field[string]
	Prenom     Field[string]
	Adresse    Field[string]
	Adresse2   Field[string] `gorm:"column:adresse2"`
	CodePostal Field[string]
	Ville      Field[string]
	Tel        Field[string]
	Port       Field[string]
	Fax        Field[string]
	Mail       Field[string]
	Comment    Field[string]
	Divers     Field[string]

	NPAI              Field[bool] `gorm:"column:npai"`
	Decede            Field[bool]
	CR                Field[bool] `gorm:"column:cr"`
	PasConvocAG       Field[bool] `gorm:"column:pas_convoc_ag"`
	PasConvocTSL      Field[bool] `gorm:"column:pas_convoc_tsl"`
	Termine           Field[bool]
	Fondateur         Field[bool]
	DeDroit           Field[bool]
	Adherent          Field[bool]
	MisDoffice        Field[bool]
	EstPersonneMorale Field[bool]
	DcdNotarie        Field[bool]
	Apport            Field[bool]
	CNI               Field[bool] `gorm:"column:cni"`

	IDStructure      Field[int] `gorm:"column:id_structure"`
	IDPersonneMorale Field[int] `gorm:"column:id_personne_morale"`
}

// PersonneFlag names a boolean status column usable as a listing filter.
type PersonneFlag string

const (
	FlagNPAI              PersonneFlag = "npai"
	FlagDecede            PersonneFlag = "decede"
	FlagCR                PersonneFlag = "cr"
	FlagPasConvocAG       PersonneFlag = "pas_convoc_ag"
	FlagPasConvocTSL      PersonneFlag = "pas_convoc_tsl"
	FlagTermine           PersonneFlag = "termine"
	FlagFondateur         PersonneFlag = "fondateur"
	FlagDeDroit           PersonneFlag = "de_droit"
	FlagAdherent          PersonneFlag = "adherent"
	FlagMisDoffice        PersonneFlag = "mis_doffice"
	FlagEstPersonneMorale PersonneFlag = "est_personne_morale"
	FlagDcdNotarie        PersonneFlag = "dcd_notarie"
	FlagApport            PersonneFlag = "apport"
	FlagCNI               PersonneFlag = "cni"
)

// Valid reports whether f is a known flag column.
func (f PersonneFlag) Valid() bool {
	switch f {
	case FlagNPAI, FlagDecede, FlagCR, FlagPasConvocAG, FlagPasConvocTSL, FlagTermine,
		FlagFondateur, FlagDeDroit, FlagAdherent, FlagMisDoffice,
		FlagEstPersonneMorale, FlagDcdNotarie, FlagApport, FlagCNI:
		return true
	}
	return false
}
