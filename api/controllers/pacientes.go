package controllers

import (
	"net/http"

	"github.com/clinica-salud/pacientes-api/api/responses"
	"github.com/clinica-salud/pacientes-api/api/validators"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
)

const (
	paramID             = "id"
	paramConsultationID = "consultaId"
)

func PatientsList(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "patient service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func PatientCreate(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body patients.PatientInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patient, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, patient)
	}
}

// PatientGet returns the patient with its consultations, newest first.
func PatientGet(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, paramID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patient, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, patient)
	}
}

// PatientUpdate replaces the patient and answers with the stored record.
func PatientUpdate(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, paramID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body patients.PatientInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Update(r.Context(), id, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patient, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, patient)
	}
}

func PatientDelete(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteMessage(w, "paciente eliminado")
	}
}
