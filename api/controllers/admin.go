package controllers

import (
	"net/http"

	"github.com/clinica-salud/pacientes-api/api/responses"
	"github.com/clinica-salud/pacientes-api/api/validators"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	"github.com/clinica-salud/pacientes-api/internal/users"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
)

func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminDeleteUser refuses while patients still reference the user.
func AdminDeleteUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, paramID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "usuario eliminado")
	}
}

func AdminMedicalData(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type clinicInfoResponse struct {
	Name    string `json:"nombre"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
	Email   string `json:"email"`
	Hours   string `json:"horario"`
}

func AdminClinicInfo(cfg config.ClinicConfig) http.HandlerFunc {
	info := clinicInfoResponse{
		Name:    cfg.Name,
		Address: cfg.Address,
		Phone:   cfg.Phone,
		Email:   cfg.Email,
		Hours:   cfg.Hours,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, info)
	}
}

// AdminCreateAppointment books an appointment as a consultation carrying only
// the date, reason and an optional note.
func AdminCreateAppointment(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body patients.AppointmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		consultation, err := svc.AddConsultation(r.Context(), body.PatientID, patients.ConsultationInput{
			Date:         body.Date,
			Reason:       body.Reason,
			ClinicalNote: body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, consultation)
	}
}
