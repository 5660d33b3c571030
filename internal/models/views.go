package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PartCounts is the live share count of one owner. A share is live while not terminated.
type PartCounts struct {
	GFA   int64 `json:"nb_parts_gfa"`
	SCTL  int64 `json:"nb_parts_sctl"`
	Total int64 `json:"nb_parts_total"`
}

func NewPartCounts(gfa, sctl int64) PartCounts {
	return PartCounts{GFA: gfa, SCTL: sctl, Total: gfa + sctl}
}

type PersonneWithParts struct {
	Personne
	PartCounts
}

// PartsTotaux counts live shares across all owners.
type PartsTotaux struct {
	GFA          int64 `json:"gfa"`
	SCTL         int64 `json:"sctl"`
	Total        int64 `json:"total"`
	Actionnaires int64 `json:"actionnaires"`
}

// MaxMouvementParts caps the share numbers listed on a movement.
const MaxMouvementParts = 10

type MouvementWithDetails struct {
	Mouvement
	PersonneNom       *string         `json:"personne_nom,omitempty"`
	PersonnePrenom    *string         `json:"personne_prenom,omitempty"`
	CodeActe          *string         `json:"code_acte,omitempty"`
	DateActe          *datatypes.Date `json:"date_acte,omitempty"`
	NumerosParts      []int           `gorm:"-" json:"numeros_parts"`
	NumerosPartsCount int64           `gorm:"-" json:"numeros_parts_count"`
}

type NumeroPartWithDetails struct {
	NumeroPart
	PersonneNom       *string         `json:"personne_nom,omitempty"`
	PersonnePrenom    *string         `json:"personne_prenom,omitempty"`
	StructureNom      *string         `json:"structure_nom,omitempty"`
	MouvementSens     *bool           `json:"mouvement_sens,omitempty"`
	MouvementDate     *datatypes.Date `json:"mouvement_date,omitempty"`
	MouvementCodeActe *string         `json:"mouvement_code_acte,omitempty"`
}

type ActeWithDetails struct {
	Acte
	StructureNom *string `json:"structure_nom,omitempty"`
}

type SubdivisionSummary struct {
	ID            int             `json:"id"`
	Division      int             `json:"division"`
	Subdivision   int             `json:"subdivision"`
	Surface       decimal.Decimal `json:"surface"`
	NomExploitant *string         `json:"nom_exploitant,omitempty"`
	IDExploitant  *int            `json:"id_exploitant,omitempty"`
}

type ParcelleWithSubdivisions struct {
	Parcelle
	NomCommune        *string              `json:"nom_commune,omitempty"`
	NomLieuDit        *string              `json:"nom_lieu_dit,omitempty"`
	TotalSurface      decimal.Decimal      `json:"total_surface"`
	NbSubdivisions    int                  `json:"nb_subdivisions"`
	FirstDivision     *int                 `json:"first_division,omitempty"`
	FirstExploitant   *string              `json:"first_exploitant,omitempty"`
	FirstExploitantID *int                 `json:"first_exploitant_id,omitempty"`
	Subdivisions      []SubdivisionSummary `gorm:"-" json:"subdivisions"`
}

// ParcelleWithDetails carries the rent of the parcel's first subdivision.
// SansValeurPoint is set when no point value was available, MontantFermage is then zero.
type ParcelleWithDetails struct {
	Parcelle
	NomCommune      *string         `json:"nom_commune,omitempty"`
	NomLieuDit      *string         `json:"nom_lieu_dit,omitempty"`
	NomExploitant   *string         `json:"nom_exploitant,omitempty"`
	MontantFermage  decimal.Decimal `json:"montant_fermage"`
	SansValeurPoint bool            `json:"sans_valeur_point"`
}

type FermageTotaux struct {
	TotalSurface    decimal.Decimal `json:"total_surface"`
	TotalRevenu     decimal.Decimal `json:"total_revenu"`
	TotalMontant    decimal.Decimal `json:"total_montant"`
	NbParcelles     int             `json:"nb_parcelles"`
	SansValeurPoint bool            `json:"sans_valeur_point"`
}

// Anomaly kinds reported by the consistency checks.
const (
	AnomalyPartsSansMouvements        = "parts_sans_mouvements"
	AnomalyMouvementsSansActes        = "mouvements_sans_actes"
	AnomalyPartsSansActionnaires      = "parts_sans_actionnaires"
	AnomalyMouvementsSansActionnaires = "mouvements_sans_actionnaires"
)

type AnomalyCount struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type AnomalySummary struct {
	Anomalies []AnomalyCount `json:"anomalies"`
	Total     int64          `json:"total"`
}
