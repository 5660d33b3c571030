package models

import "github.com/shopspring/decimal"

type Commune struct {
	ID     int    `gorm:"primaryKey" json:"id"`
	NumCom string `gorm:"size:10;not null;index" json:"num_com"`
	NomCom string `gorm:"size:100;not null" json:"nom_com"`
}

func (Commune) TableName() string { return "communes" }

type CommunePatch struct {
	NumCom Field[string]
	NomCom Field[string]
}

// LieuDit is a named locality inside a commune.
type LieuDit struct {
	ID        int      `gorm:"primaryKey" json:"id"`
	Nom       string   `gorm:"size:100;not null" json:"nom"`
	IDCommune int      `gorm:"column:id_commune;not null;index" json:"id_commune"`
	Commune   *Commune `gorm:"foreignKey:IDCommune;constraint:OnDelete:RESTRICT" json:"-"`
}

func (LieuDit) TableName() string { return "lieux_dits" }

type LieuDitPatch struct {
	Nom       Field[string]
	IDCommune Field[int] `gorm:"column:id_commune"`
}

// Exploitant is a farmer renting subdivisions.
type Exploitant struct {
	ID         int     `gorm:"primaryKey" json:"id"`
	Nom        string  `gorm:"size:100;not null;index" json:"nom"`
	Prenom     *string `gorm:"size:100" json:"prenom,omitempty"`
	Adresse    *string `gorm:"size:255" json:"adresse,omitempty"`
	CodePostal *string `gorm:"size:10" json:"code_postal,omitempty"`
	Ville      *string `gorm:"size:100" json:"ville,omitempty"`
	Tel        *string `gorm:"size:20" json:"tel,omitempty"`
	Mail       *string `gorm:"size:255" json:"mail,omitempty"`
}

func (Exploitant) TableName() string { return "exploitants" }

func (e *Exploitant) DisplayName() string { return FullName(e.Nom, e.Prenom) }

type ExploitantPatch struct {
	Nom        Field[string]
	Prenom     Field[string]
	Adresse    Field[string]
	CodePostal Field[string]
	Ville      Field[string]
	Tel        Field[string]
	Mail       Field[string]
}

type TypeCadastre struct {
	ID      int     `gorm:"primaryKey" json:"id"`
	Libelle string  `gorm:"size:100;not null" json:"libelle"`
	Code    *string `gorm:"size:10" json:"code,omitempty"`
}

func (TypeCadastre) TableName() string { return "types_cadastre" }

type ClasseCadastre struct {
	ID      int     `gorm:"primaryKey" json:"id"`
	Libelle string  `gorm:"size:100;not null" json:"libelle"`
	Code    *string `gorm:"size:10" json:"code,omitempty"`
}

func (ClasseCadastre) TableName() string { return "classes_cadastre" }

type CodeLibellePatch struct {
	Libelle Field[string]
	Code    Field[string]
}

// TypeFermage is a lease category with its default rent points.
type TypeFermage struct {
	ID      int             `gorm:"primaryKey" json:"id"`
	Libelle string          `gorm:"size:100;not null" json:"libelle"`
	Points  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"points"`
}

func (TypeFermage) TableName() string { return "types_fermage" }

type TypeFermagePatch struct {
	Libelle Field[string]
	Points  Field[decimal.Decimal]
}

// ValeurPoint holds the monetary value of one rent point for a year, per owner
// kind, plus the optional duration supplement percentages.
type ValeurPoint struct {
	ID              int             `gorm:"primaryKey" json:"id"`
	Annee           int             `gorm:"not null;uniqueIndex" json:"annee"`
	ValeurPointGFA  decimal.Decimal `gorm:"column:valeur_point_gfa;type:decimal(10,4);not null;default:0" json:"valeur_point_gfa"`
	ValeurPointSCTL decimal.Decimal `gorm:"column:valeur_point_sctl;type:decimal(10,4);not null;default:0" json:"valeur_point_sctl"`
	ValeurSuppGFA   decimal.Decimal `gorm:"column:valeur_supp_gfa;type:decimal(5,2);not null;default:0" json:"valeur_supp_gfa"`
	ValeurSuppSCTL  decimal.Decimal `gorm:"column:valeur_supp_sctl;type:decimal(5,2);not null;default:0" json:"valeur_supp_sctl"`
}

func (ValeurPoint) TableName() string { return "valeurs_points" }

type ValeurPointPatch struct {
	Annee           Field[int]
	ValeurPointGFA  Field[decimal.Decimal] `gorm:"column:valeur_point_gfa"`
	ValeurPointSCTL Field[decimal.Decimal] `gorm:"column:valeur_point_sctl"`
	ValeurSuppGFA   Field[decimal.Decimal] `gorm:"column:valeur_supp_gfa"`
	ValeurSuppSCTL  Field[decimal.Decimal] `gorm:"column:valeur_supp_sctl"`
}

// Parcelle is a cadastral parcel. SCTL marks parcels owned by the tenant trust.
type Parcelle struct {
	ID      int     `gorm:"primaryKey" json:"id"`
	Ref     string  `gorm:"column:parcelle;size:50;not null;index" json:"parcelle"`
	SCTL    bool    `gorm:"column:sctl;not null;default:false" json:"sctl"`
	Comment *string `gorm:"type:text" json:"comment,omitempty"`

	IDCommune        int             `gorm:"column:id_commune;not null;index" json:"id_commune"`
	Commune          *Commune        `gorm:"foreignKey:IDCommune;constraint:OnDelete:RESTRICT" json:"-"`
	IDLieuDit        *int            `gorm:"column:id_lieu_dit;index" json:"id_lieu_dit,omitempty"`
	LieuDit          *LieuDit        `gorm:"foreignKey:IDLieuDit;constraint:OnDelete:SET NULL" json:"-"`
	IDTypeCadastre   *int            `gorm:"column:id_type_cadastre" json:"id_type_cadastre,omitempty"`
	TypeCadastre     *TypeCadastre   `gorm:"foreignKey:IDTypeCadastre" json:"-"`
	IDClasseCadastre *int            `gorm:"column:id_classe_cadastre" json:"id_classe_cadastre,omitempty"`
	ClasseCadastre   *ClasseCadastre `gorm:"foreignKey:IDClasseCadastre" json:"-"`
	IDGFA            *int            `gorm:"column:id_gfa" json:"id_gfa,omitempty"`
	GFA              *Structure      `gorm:"foreignKey:IDGFA" json:"-"`
}

func (Parcelle) TableName() string { return "parcelles" }

type ParcellePatch struct {
	Ref              Field[string] `gorm:"column:parcelle"`
	SCTL             Field[bool]   `gorm:"column:sctl"`
	Comment          Field[string]
	IDCommune        Field[int] `gorm:"column:id_commune"`
	IDLieuDit        Field[int] `gorm:"column:id_lieu_dit"`
	IDTypeCadastre   Field[int] `gorm:"column:id_type_cadastre"`
	IDClasseCadastre Field[int] `gorm:"column:id_classe_cadastre"`
	IDGFA            Field[int] `gorm:"column:id_gfa"`
}

// Subdivision is the leased unit of a parcel. PointFermage is null when the
// subdivision relies on its lease type's default points.
type Subdivision struct {
	ID           int                 `gorm:"primaryKey" json:"id"`
	Division     int                 `gorm:"not null;default:0" json:"division"`
	Subdivision  int                 `gorm:"column:subdivision;not null;default:0" json:"subdivision"`
	Surface      decimal.Decimal     `gorm:"type:decimal(15,4);not null;default:0" json:"surface"`
	Revenu       decimal.Decimal     `gorm:"type:decimal(15,4);not null;default:0" json:"revenu"`
	GFA          *string             `gorm:"column:gfa;size:10" json:"gfa,omitempty"`
	DureeFermage int                 `gorm:"not null;default:0" json:"duree_fermage"`
	PointFermage decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"point_fermage"`

	IDParcelle       int             `gorm:"column:id_parcelle;not null;index" json:"id_parcelle"`
	Parcelle         *Parcelle       `gorm:"foreignKey:IDParcelle;constraint:OnDelete:RESTRICT" json:"-"`
	IDExploitant     *int            `gorm:"column:id_exploitant;index" json:"id_exploitant,omitempty"`
	Exploitant       *Exploitant     `gorm:"foreignKey:IDExploitant;constraint:OnDelete:SET NULL" json:"-"`
	IDTypeFermage    *int            `gorm:"column:id_type_fermage;index" json:"id_type_fermage,omitempty"`
	TypeFermage      *TypeFermage    `gorm:"foreignKey:IDTypeFermage" json:"-"`
	IDTypeCadastre   *int            `gorm:"column:id_type_cadastre" json:"id_type_cadastre,omitempty"`
	TypeCadastre     *TypeCadastre   `gorm:"foreignKey:IDTypeCadastre" json:"-"`
	IDClasseCadastre *int            `gorm:"column:id_classe_cadastre" json:"id_classe_cadastre,omitempty"`
	ClasseCadastre   *ClasseCadastre `gorm:"foreignKey:IDClasseCadastre" json:"-"`
	IDCommune        *int            `gorm:"column:id_commune" json:"id_commune,omitempty"`
	Commune          *Commune        `gorm:"foreignKey:IDCommune" json:"-"`
	IDLieuDit        *int            `gorm:"column:id_lieu_dit" json:"id_lieu_dit,omitempty"`
	LieuDit          *LieuDit        `gorm:"foreignKey:IDLieuDit" json:"-"`
}

func (Subdivision) TableName() string { return "subdivisions" }

type SubdivisionPatch struct {
	Division         Field[int]
	Subdivision      Field[int] `gorm:"column:subdivision"`
	Surface          Field[decimal.Decimal]
	Revenu           Field[decimal.Decimal]
	GFA              Field[string] `gorm:"column:gfa"`
	DureeFermage     Field[int]
	PointFermage     Field[decimal.Decimal]
	IDParcelle       Field[int] `gorm:"column:id_parcelle"`
	IDExploitant     Field[int] `gorm:"column:id_exploitant"`
	IDTypeFermage    Field[int] `gorm:"column:id_type_fermage"`
	IDTypeCadastre   Field[int] `gorm:"column:id_type_cadastre"`
	IDClasseCadastre Field[int] `gorm:"column:id_classe_cadastre"`
	IDCommune        Field[int] `gorm:"column:id_commune"`
	IDLieuDit        Field[int] `gorm:"column:id_lieu_dit"`
}

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&Structure{}, &TypeApport{}, &TypeRemboursement{},
		&Acte{}, &Personne{}, &Mouvement{}, &NumeroPart{},
		&Commune{}, &LieuDit{}, &Exploitant{}, &TypeCadastre{}, &ClasseCadastre{},
		&TypeFermage{}, &ValeurPoint{}, &Parcelle{}, &Subdivision{},
	}
}
