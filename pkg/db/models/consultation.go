package models

import (
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/types"
	"gorm.io/datatypes"
)

// Consultation is a single visit. PatientID is the only link back to the
// owning patient.
type Consultation struct {
	ID                   uint                                     `gorm:"primaryKey"`
	PatientID            uint                                     `gorm:"column:patient_id;not null;index:idx_consultations_patient_date,priority:1"`
	Date                 time.Time                                `gorm:"column:date;type:date;not null;index:idx_consultations_patient_date,priority:2"`
	Reason               string                                   `gorm:"column:reason;type:text;not null"`
	ClinicalNote         string                                   `gorm:"column:clinical_note;type:text"`
	Labs                 types.LabPanel                           `gorm:"embedded"`
	ExtraLabValues       datatypes.JSONSlice[types.ExtraLabValue] `gorm:"column:extra_lab_values"`
	LabDate              *time.Time                               `gorm:"column:lab_date;type:date"`
	HighlightedFields    datatypes.JSONSlice[string]              `gorm:"column:highlighted_fields"`
	Attachments          datatypes.JSONSlice[types.Attachment]    `gorm:"column:attachments"`
	Prescription         string                                   `gorm:"column:prescription;type:text"`
	PrescriptionReviewed bool                                     `gorm:"column:prescription_reviewed;not null;default:false"`
	Indications          string                                   `gorm:"column:indications;type:text"`
	IndicationsReviewed  bool                                     `gorm:"column:indications_reviewed;not null;default:false"`
	Treatment            string                                   `gorm:"column:treatment;type:text"`
	TreatmentReviewed    bool                                     `gorm:"column:treatment_reviewed;not null;default:false"`
	CreatedAt            time.Time                                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                                `gorm:"column:updated_at;autoUpdateTime"`
}
