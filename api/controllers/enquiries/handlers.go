package enquiries

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rugstore-backend/api/middleware"
	"github.com/angelmondragon/rugstore-backend/api/responses"
	"github.com/angelmondragon/rugstore-backend/api/validators"
	enquirysvc "github.com/angelmondragon/rugstore-backend/internal/enquiries"
	"github.com/angelmondragon/rugstore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, input enquirysvc.CreateEnquiryInput) (*enquirysvc.EnquiryDTO, error)
	List(ctx context.Context, actor auth.Actor) ([]enquirysvc.EnquiryDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "enquiry service unavailable"))
}

// EnquiryCreate accepts a contact form submission from anyone.
func EnquiryCreate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var body enquirysvc.CreateEnquiryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		enquiry, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, enquiry)
	}
}

func EnquiryList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		items, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func EnquiryDelete(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Enquiry deleted"})
	}
}
