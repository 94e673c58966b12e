package controllers

import (
	"net/http"

	"github.com/clinica-salud/pacientes-api/api/responses"
	"github.com/clinica-salud/pacientes-api/api/validators"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
)

func ConsultationCreate(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := validators.ParseIDParam(r, paramID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body patients.ConsultationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		consultation, err := svc.AddConsultation(r.Context(), patientID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, consultation)
	}
}

func ConsultationsList(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := validators.ParseIDParam(r, paramID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListConsultations(r.Context(), patientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ConsultationGet(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, id, err := consultationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		consultation, err := svc.GetConsultation(r.Context(), patientID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, consultation)
	}
}

func ConsultationUpdate(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, id, err := consultationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body patients.ConsultationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		consultation, err := svc.UpdateConsultation(r.Context(), patientID, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, consultation)
	}
}

func ConsultationDelete(svc patients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, id, err := consultationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteConsultation(r.Context(), patientID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "consulta eliminada")
	}
}

func consultationParams(r *http.Request) (uint, uint, error) {
	patientID, err := validators.ParseIDParam(r, paramID)
	if err != nil {
		return 0, 0, err
	}
	id, err := validators.ParseIDParam(r, paramConsultationID)
	if err != nil {
		return 0, 0, err
	}
	return patientID, id, nil
}
