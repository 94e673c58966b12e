package patients

import (
	"encoding/json"
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	"github.com/clinica-salud/pacientes-api/pkg/types"
	"github.com/shopspring/decimal"
)

// PatientInput is the body of POST/PUT /api/pacientes. Dates accept
// dd/MM/yyyy or yyyy-MM-dd.
type PatientInput struct {
	ID                 *uint               `json:"id,omitempty"`
	DNI                string              `json:"dni" validate:"required,max=32"`
	AffiliateNumber    string              `json:"numeroAfiliado" validate:"max=64"`
	FirstName          string              `json:"nombre" validate:"required,max=120"`
	LastName           string              `json:"apellido" validate:"required,max=120"`
	Phone              string              `json:"telefono" validate:"max=40"`
	Email              string              `json:"email" validate:"omitempty,email"`
	InsuranceProvider  string              `json:"obraSocial" validate:"max=120"`
	BirthDate          string              `json:"fechaNacimiento"`
	HeightCM           decimal.NullDecimal `json:"altura"`
	WeightKG           decimal.NullDecimal `json:"peso"`
	MedicalHistory     string              `json:"antecedentes"`
	Medication         string              `json:"medicacion"`
	CurrentTreatment   string              `json:"tratamientoActual"`
	PrivatePatient     bool                `json:"particular"`
	AttendingPhysician *string             `json:"doctorCabecera"`
	UserID             *uint               `json:"usuarioId"`

	// Read-only fields clients echo back from GET; ignored.
	Consultations json.RawMessage `json:"consultas,omitempty"`
	CreatedAt     json.RawMessage `json:"creadoEn,omitempty"`
	UpdatedAt     json.RawMessage `json:"actualizadoEn,omitempty"`
}

// PatientDTO is the transport shape of a patient. Consultations are only
// present when the patient is fetched individually, and then always as an
// array, empty for a patient without visits.
type PatientDTO struct {
	ID                 uint                `json:"id"`
	DNI                string              `json:"dni"`
	AffiliateNumber    string              `json:"numeroAfiliado"`
	FirstName          string              `json:"nombre"`
	LastName           string              `json:"apellido"`
	Phone              string              `json:"telefono"`
	Email              string              `json:"email"`
	InsuranceProvider  string              `json:"obraSocial"`
	BirthDate          *types.Date         `json:"fechaNacimiento"`
	HeightCM           decimal.NullDecimal `json:"altura"`
	WeightKG           decimal.NullDecimal `json:"peso"`
	MedicalHistory     string              `json:"antecedentes"`
	Medication         string              `json:"medicacion"`
	CurrentTreatment   string              `json:"tratamientoActual"`
	PrivatePatient     bool                `json:"particular"`
	AttendingPhysician *string             `json:"doctorCabecera"`
	UserID             *uint               `json:"usuarioId"`
	Consultations      *[]ConsultationDTO  `json:"consultas,omitempty"`
	CreatedAt          time.Time           `json:"creadoEn"`
	UpdatedAt          time.Time           `json:"actualizadoEn"`
}

// ConsultationInput is the body used to create or replace a consultation.
// The embedded lab panel contributes one optional field per analyte.
type ConsultationInput struct {
	ID           *uint  `json:"id,omitempty"`
	PatientID    *uint  `json:"pacienteId,omitempty"`
	Date         string `json:"fecha"`
	Reason       string `json:"motivo"`
	ClinicalNote string `json:"notaClinica"`
	types.LabPanel
	ExtraLabValues       []types.ExtraLabValue `json:"valoresNoIncluidos" validate:"omitempty,dive"`
	LabDate              string                `json:"fechaLaboratorio"`
	HighlightedFields    []string              `json:"camposResaltados"`
	Attachments          []types.Attachment    `json:"adjuntos" validate:"omitempty,dive"`
	Prescription         string                `json:"receta"`
	PrescriptionReviewed bool                  `json:"recetaRevisada"`
	Indications          string                `json:"indicaciones"`
	IndicationsReviewed  bool                  `json:"indicacionesRevisadas"`
	Treatment            string                `json:"tratamiento"`
	TreatmentReviewed    bool                  `json:"tratamientoRevisado"`

	// Read-only fields clients echo back from GET; ignored.
	MeasuredFields json.RawMessage `json:"camposMedidos,omitempty"`
	CreatedAt      json.RawMessage `json:"creadoEn,omitempty"`
	UpdatedAt      json.RawMessage `json:"actualizadoEn,omitempty"`
}

// ConsultationDTO emits the owning patient only as an id.
type ConsultationDTO struct {
	ID           uint       `json:"id"`
	PatientID    uint       `json:"pacienteId"`
	Date         types.Date `json:"fecha"`
	Reason       string     `json:"motivo"`
	ClinicalNote string     `json:"notaClinica"`
	types.LabPanel
	MeasuredFields       []string              `json:"camposMedidos"`
	ExtraLabValues       []types.ExtraLabValue `json:"valoresNoIncluidos"`
	LabDate              *types.Date           `json:"fechaLaboratorio"`
	HighlightedFields    []string              `json:"camposResaltados"`
	Attachments          []types.Attachment    `json:"adjuntos"`
	Prescription         string                `json:"receta"`
	PrescriptionReviewed bool                  `json:"recetaRevisada"`
	Indications          string                `json:"indicaciones"`
	IndicationsReviewed  bool                  `json:"indicacionesRevisadas"`
	Treatment            string                `json:"tratamiento"`
	TreatmentReviewed    bool                  `json:"tratamientoRevisado"`
	CreatedAt            time.Time             `json:"creadoEn"`
	UpdatedAt            time.Time             `json:"actualizadoEn"`
}

// AppointmentRequest is the body of POST /api/admin/create-appointment.
type AppointmentRequest struct {
	PatientID uint   `json:"pacienteId" validate:"required"`
	Date      string `json:"fecha" validate:"required"`
	Reason    string `json:"motivo" validate:"required"`
	Note      string `json:"nota"`
}

// Stats summarizes the stored medical data.
type Stats struct {
	Patients                int64 `json:"pacientes"`
	PrivatePatients         int64 `json:"pacientesParticulares"`
	LinkedPatients          int64 `json:"pacientesConUsuario"`
	Consultations           int64 `json:"consultas"`
	ConsultationsLast30Days int64 `json:"consultasUltimos30Dias"`
}

func patientFromModel(p *models.Patient, withConsultations bool) *PatientDTO {
	if p == nil {
		return nil
	}
	dto := &PatientDTO{
		ID:                 p.ID,
		DNI:                p.DNI,
		AffiliateNumber:    p.AffiliateNumber,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Phone:              p.Phone,
		Email:              p.Email,
		InsuranceProvider:  p.InsuranceProvider,
		BirthDate:          types.DateFromPtr(p.BirthDate),
		HeightCM:           p.HeightCM,
		WeightKG:           p.WeightKG,
		MedicalHistory:     p.MedicalHistory,
		Medication:         p.Medication,
		CurrentTreatment:   p.CurrentTreatment,
		PrivatePatient:     p.PrivatePatient,
		AttendingPhysician: p.AttendingPhysician,
		UserID:             p.UserID,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if withConsultations {
		consultations := make([]ConsultationDTO, 0, len(p.Consultations))
		for i := range p.Consultations {
			consultations = append(consultations, *consultationFromModel(&p.Consultations[i]))
		}
		dto.Consultations = &consultations
	}
	return dto
}

func consultationFromModel(c *models.Consultation) *ConsultationDTO {
	if c == nil {
		return nil
	}
	return &ConsultationDTO{
		ID:                   c.ID,
		PatientID:            c.PatientID,
		Date:                 types.NewDate(c.Date),
		Reason:               c.Reason,
		ClinicalNote:         c.ClinicalNote,
		LabPanel:             c.Labs,
		MeasuredFields:       c.Labs.Measured(),
		ExtraLabValues:       nonNil(c.ExtraLabValues),
		LabDate:              types.DateFromPtr(c.LabDate),
		HighlightedFields:    nonNil(c.HighlightedFields),
		Attachments:          nonNil(c.Attachments),
		Prescription:         c.Prescription,
		PrescriptionReviewed: c.PrescriptionReviewed,
		Indications:          c.Indications,
		IndicationsReviewed:  c.IndicationsReviewed,
		Treatment:            c.Treatment,
		TreatmentReviewed:    c.TreatmentReviewed,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return append([]T(nil), in...)
}
