package patients

import (
	"context"
	"time"

	"github.com/clinica-salud/pacientes-api/internal/repo"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists patients and their consultations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a patients repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func orderConsultations(db *gorm.DB) *gorm.DB {
	return db.Order("date DESC").Order("id ASC")
}

// List returns every patient ordered by id, without consultations.
func (r *Repository) List(ctx context.Context) ([]models.Patient, error) {
	var out []models.Patient
	if err := r.DB(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts the patient, filling its ID.
func (r *Repository) Create(ctx context.Context, patient *models.Patient) error {
	return r.DB(ctx).Omit(clause.Associations).Create(patient).Error
}

// FindByID loads a patient with its consultations, newest first.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	err := r.DB(ctx).
		Preload("Consultations", orderConsultations).
		First(&patient, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// Exists reports whether a patient with id is stored.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Patient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UserExists reports whether the user a patient is linked to is stored.
func (r *Repository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces every mutable column of the patient. A row that vanished
// yields gorm.ErrRecordNotFound.
func (r *Repository) Update(ctx context.Context, id uint, patient *models.Patient) error {
	res := r.DB(ctx).
		Model(&models.Patient{}).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(patient)
	return repo.Affected(res)
}

// Delete removes the patient row.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return repo.Affected(r.DB(ctx).Delete(&models.Patient{}, id))
}

// DeleteConsultations removes every consultation owned by the patient.
func (r *Repository) DeleteConsultations(ctx context.Context, patientID uint) (int64, error) {
	res := r.DB(ctx).Where("patient_id = ?", patientID).Delete(&models.Consultation{})
	return res.RowsAffected, res.Error
}

// CreateConsultation inserts a consultation, filling its ID.
func (r *Repository) CreateConsultation(ctx context.Context, consultation *models.Consultation) error {
	return r.DB(ctx).Create(consultation).Error
}

// ListConsultations returns the patient's consultations by date descending,
// ties in insertion order.
func (r *Repository) ListConsultations(ctx context.Context, patientID uint) ([]models.Consultation, error) {
	var out []models.Consultation
	err := orderConsultations(r.DB(ctx)).
		Where("patient_id = ?", patientID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindConsultation loads one consultation scoped to its patient.
func (r *Repository) FindConsultation(ctx context.Context, patientID, id uint) (*models.Consultation, error) {
	var consultation models.Consultation
	err := r.DB(ctx).
		Where("patient_id = ?", patientID).
		First(&consultation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &consultation, nil
}

// UpdateConsultation replaces every mutable column of the consultation.
func (r *Repository) UpdateConsultation(ctx context.Context, patientID, id uint, consultation *models.Consultation) error {
	res := r.DB(ctx).
		Model(&models.Consultation{}).
		Where("id = ? AND patient_id = ?", id, patientID).
		Select("*").
		Omit("id", "patient_id", "created_at").
		Updates(consultation)
	return repo.Affected(res)
}

// DeleteConsultation removes one consultation scoped to its patient.
func (r *Repository) DeleteConsultation(ctx context.Context, patientID, id uint) error {
	return repo.Affected(r.DB(ctx).
		Where("patient_id = ?", patientID).
		Delete(&models.Consultation{}, id))
}

// Stats counts stored patients and consultations.
func (r *Repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	db := r.DB(ctx)
	var stats Stats
	if err := db.Model(&models.Patient{}).Count(&stats.Patients).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Patient{}).Where("private_patient = ?", true).Count(&stats.PrivatePatients).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Patient{}).Where("user_id IS NOT NULL").Count(&stats.LinkedPatients).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Consultation{}).Count(&stats.Consultations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Consultation{}).Where("date >= ?", since).Count(&stats.ConsultationsLast30Days).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
