package controllers

import (
	"net/http"

	"github.com/angelmondragon/rugstore-backend/api/responses"
	"github.com/angelmondragon/rugstore-backend/api/validators"
	"github.com/angelmondragon/rugstore-backend/internal/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// AuthLogin exchanges email and password for an access and refresh token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeLogin(w, r, svc, body, http.StatusOK, logg)
	}
}

// AuthRegister opens a customer account and signs it in.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return register(reg, svc, enums.UserRoleCustomer, logg)
}

// AdminAuthRegister opens a back-office account. The router mounts it only
// outside production with the admin-registration flag on.
func AdminAuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return register(reg, svc, enums.UserRoleAdmin, logg)
}

func register(reg auth.RegisterService, svc auth.Service, role enums.UserRole, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := reg.Register(r.Context(), body, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeLogin(w, r, svc, auth.LoginRequest{Email: body.Email, Password: body.Password}, http.StatusCreated, logg)
	}
}

func writeLogin(w http.ResponseWriter, r *http.Request, svc auth.Service, creds auth.LoginRequest, status int, logg *logger.Logger) {
	result, err := svc.Login(r.Context(), creds)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, result)
}
