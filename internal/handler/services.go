package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"servicecart/internal/domain/catalog"
)

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context())
	if err != nil {
		logRequestError(r, "catalog list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load services")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, svc := range services {
			encodeService(e, svc)
		}
		e.ArrEnd()
	})
}

func encodeService(e *jx.Encoder, svc catalog.Service) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(svc.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(svc.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(svc.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Str(svc.Price.StringFixed(2)) })
		e.Field("image", func(e *jx.Encoder) { e.Str(svc.Image) })
	})
}
