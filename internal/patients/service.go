package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns patient records and their consultations.
type Service interface {
	List(ctx context.Context) ([]PatientDTO, error)
	Create(ctx context.Context, in PatientInput) (*PatientDTO, error)
	Get(ctx context.Context, id uint) (*PatientDTO, error)
	Update(ctx context.Context, id uint, in PatientInput) error
	Delete(ctx context.Context, id uint) error

	AddConsultation(ctx context.Context, patientID uint, in ConsultationInput) (*ConsultationDTO, error)
	ListConsultations(ctx context.Context, patientID uint) ([]ConsultationDTO, error)
	GetConsultation(ctx context.Context, patientID, id uint) (*ConsultationDTO, error)
	UpdateConsultation(ctx context.Context, patientID, id uint, in ConsultationInput) (*ConsultationDTO, error)
	DeleteConsultation(ctx context.Context, patientID, id uint) error

	Stats(ctx context.Context) (*Stats, error)
}

// ServiceParams packages the dependencies for the patients service.
type ServiceParams struct {
	DB     *db.Client
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	db   *db.Client
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the patients service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:   params.DB,
		repo: NewRepository(params.DB.DB()),
		logg: logg,
		now:  now,
	}, nil
}

func (s *service) List(ctx context.Context) ([]PatientDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list patients")
	}
	out := make([]PatientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *patientFromModel(&rows[i], false))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, in PatientInput) (*PatientDTO, error) {
	patient, err := s.patientFromInput(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, s.mapWriteError(err, "create patient")
	}
	return patientFromModel(patient, true), nil
}

func (s *service) Get(ctx context.Context, id uint) (*PatientDTO, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, patientNotFound(err, "load patient")
	}
	return patientFromModel(patient, true), nil
}

func (s *service) Update(ctx context.Context, id uint, in PatientInput) error {
	if in.ID != nil && *in.ID != id {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrIDMismatch, "path id and payload id differ").
			WithDetails(map[string]any{"id": *in.ID, "pathId": id})
	}

	patient, err := s.patientFromInput(ctx, in)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, patient); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return patientNotFound(err, "update patient")
		}
		return s.mapWriteError(err, "update patient")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	var removed int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		var err error
		removed, err = repo.DeleteConsultations(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete consultations")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return patientNotFound(err, "delete patient")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(s.logg.WithPatientID(ctx, id), "consultations", removed), "patient deleted")
	return nil
}

func (s *service) AddConsultation(ctx context.Context, patientID uint, in ConsultationInput) (*ConsultationDTO, error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return nil, err
	}

	consultation, err := consultationFromInput(in)
	if err != nil {
		return nil, err
	}
	consultation.PatientID = patientID

	if err := s.repo.CreateConsultation(ctx, consultation); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create consultation")
	}
	return consultationFromModel(consultation), nil
}

func (s *service) ListConsultations(ctx context.Context, patientID uint) ([]ConsultationDTO, error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListConsultations(ctx, patientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list consultations")
	}
	out := make([]ConsultationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *consultationFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetConsultation(ctx context.Context, patientID, id uint) (*ConsultationDTO, error) {
	consultation, err := s.repo.FindConsultation(ctx, patientID, id)
	if err != nil {
		return nil, consultationNotFound(err, "load consultation")
	}
	return consultationFromModel(consultation), nil
}

func (s *service) UpdateConsultation(ctx context.Context, patientID, id uint, in ConsultationInput) (*ConsultationDTO, error) {
	if in.ID != nil && *in.ID != id {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrIDMismatch, "path id and payload id differ").
			WithDetails(map[string]any{"id": *in.ID, "pathId": id})
	}

	consultation, err := consultationFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateConsultation(ctx, patientID, id, consultation); err != nil {
		return nil, consultationNotFound(err, "update consultation")
	}
	return s.GetConsultation(ctx, patientID, id)
}

func (s *service) DeleteConsultation(ctx context.Context, patientID, id uint) error {
	if err := s.repo.DeleteConsultation(ctx, patientID, id); err != nil {
		return consultationNotFound(err, "delete consultation")
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	since := types.NewDate(s.now().AddDate(0, 0, -30)).Time
	stats, err := s.repo.Stats(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count medical data")
	}
	return stats, nil
}

func (s *service) ensurePatient(ctx context.Context, id uint) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check patient")
	}
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "patient not found")
	}
	return nil
}

func (s *service) patientFromInput(ctx context.Context, in PatientInput) (*models.Patient, error) {
	details := map[string]string{}
	if strings.TrimSpace(in.DNI) == "" {
		details["dni"] = "is required"
	}
	if strings.TrimSpace(in.FirstName) == "" {
		details["nombre"] = "is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		details["apellido"] = "is required"
	}

	var birthDate *time.Time
	if strings.TrimSpace(in.BirthDate) != "" {
		parsed, err := types.ParseDate(in.BirthDate)
		if err != nil {
			details["fechaNacimiento"] = types.ErrInvalidDate.Error()
		} else {
			birthDate = &parsed
		}
	}
	if in.HeightCM.Valid && in.HeightCM.Decimal.IsNegative() {
		details["altura"] = "must not be negative"
	}
	if in.WeightKG.Valid && in.WeightKG.Decimal.IsNegative() {
		details["peso"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, invalid(details)
	}

	if in.UserID != nil {
		ok, err := s.repo.UserExists(ctx, *in.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check linked user")
		}
		if !ok {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrUnknownUser, "linked user does not exist").
				WithDetails(map[string]string{"usuarioId": "does not exist"})
		}
	}

	return &models.Patient{
		DNI:                strings.TrimSpace(in.DNI),
		AffiliateNumber:    strings.TrimSpace(in.AffiliateNumber),
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Phone:              strings.TrimSpace(in.Phone),
		Email:              strings.TrimSpace(in.Email),
		InsuranceProvider:  strings.TrimSpace(in.InsuranceProvider),
		BirthDate:          birthDate,
		HeightCM:           in.HeightCM,
		WeightKG:           in.WeightKG,
		MedicalHistory:     in.MedicalHistory,
		Medication:         in.Medication,
		CurrentTreatment:   in.CurrentTreatment,
		PrivatePatient:     in.PrivatePatient,
		AttendingPhysician: trimmedPtr(in.AttendingPhysician),
		UserID:             in.UserID,
	}, nil
}

func consultationFromInput(in ConsultationInput) (*models.Consultation, error) {
	details := map[string]string{}

	var date time.Time
	if strings.TrimSpace(in.Date) == "" {
		details["fecha"] = "is required"
	} else if parsed, err := types.ParseDate(in.Date); err != nil {
		details["fecha"] = types.ErrInvalidDate.Error()
	} else {
		date = parsed
	}
	if strings.TrimSpace(in.Reason) == "" {
		details["motivo"] = "is required"
	}

	var labDate *time.Time
	if strings.TrimSpace(in.LabDate) != "" {
		parsed, err := types.ParseDate(in.LabDate)
		if err != nil {
			details["fechaLaboratorio"] = types.ErrInvalidDate.Error()
		} else {
			labDate = &parsed
		}
	}
	if len(details) > 0 {
		return nil, invalid(details)
	}

	return &models.Consultation{
		Date:                 date,
		Reason:               strings.TrimSpace(in.Reason),
		ClinicalNote:         in.ClinicalNote,
		Labs:                 in.LabPanel,
		ExtraLabValues:       datatypes.JSONSlice[types.ExtraLabValue](nonNil(in.ExtraLabValues)),
		LabDate:              labDate,
		HighlightedFields:    datatypes.JSONSlice[string](uniqueNames(in.HighlightedFields)),
		Attachments:          datatypes.JSONSlice[types.Attachment](nonNil(in.Attachments)),
		Prescription:         in.Prescription,
		PrescriptionReviewed: in.PrescriptionReviewed,
		Indications:          in.Indications,
		IndicationsReviewed:  in.IndicationsReviewed,
		Treatment:            in.Treatment,
		TreatmentReviewed:    in.TreatmentReviewed,
	}, nil
}

func invalid(details map[string]string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "validation failed").WithDetails(details)
}

func uniqueNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *service) mapWriteError(err error, op string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrUnknownUser, "linked user does not exist")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func patientNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "patient not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func consultationNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrConsultationNotFound, "consultation not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
