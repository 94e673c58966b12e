package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patient owns its consultations; deleting it removes them.
type Patient struct {
	ID                 uint                `gorm:"primaryKey"`
	DNI                string              `gorm:"column:dni;type:text;not null"`
	AffiliateNumber    string              `gorm:"column:affiliate_number;type:text"`
	FirstName          string              `gorm:"column:first_name;type:text;not null"`
	LastName           string              `gorm:"column:last_name;type:text;not null"`
	Phone              string              `gorm:"column:phone;type:text"`
	Email              string              `gorm:"column:email;type:text"`
	InsuranceProvider  string              `gorm:"column:insurance_provider;type:text"`
	BirthDate          *time.Time          `gorm:"column:birth_date;type:date"`
	HeightCM           decimal.NullDecimal `gorm:"column:height_cm;type:numeric(6,2)"`
	WeightKG           decimal.NullDecimal `gorm:"column:weight_kg;type:numeric(6,2)"`
	MedicalHistory     string              `gorm:"column:medical_history;type:text"`
	Medication         string              `gorm:"column:medication;type:text"`
	CurrentTreatment   string              `gorm:"column:current_treatment;type:text"`
	PrivatePatient     bool                `gorm:"column:private_patient;not null;default:false"`
	AttendingPhysician *string             `gorm:"column:attending_physician;type:text"`
	UserID             *uint               `gorm:"column:user_id;index:idx_patients_user_id"`
	Consultations      []Consultation      `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
