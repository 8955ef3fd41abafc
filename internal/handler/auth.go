package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"servicecart/internal/upstream"
)

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string
		Username string
	}
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "phone":
				v, err := d.Str()
				req.Phone = v
				return err
			case "username":
				v, err := d.Str()
				req.Username = v
				return err
			default:
				return d.Skip()
			}
		})
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if !phonePattern.MatchString(req.Phone) {
		writeError(w, http.StatusBadRequest, "invalid_phone", "phone must match +<12 digits>")
		return
	}

	challenge, err := h.otp.SendOTP(r.Context(), req.Phone, req.Username)
	if err != nil {
		logRequestError(r, "send otp upstream call failed", err)
		writeUpstreamError(w, err, "could not send verification code")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("hash", func(e *jx.Encoder) { e.Str(challenge.Hash) })
		})
	})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string
		Code     string
		Hash     string
		Username string
	}
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var v string
			var err error
			switch key {
			case "phone":
				v, err = d.Str()
				req.Phone = v
			case "code":
				v, err = d.Str()
				req.Code = v
			case "hash":
				v, err = d.Str()
				req.Hash = v
			case "username":
				v, err = d.Str()
				req.Username = v
			default:
				return d.Skip()
			}
			return err
		})
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Phone == "" || req.Code == "" || req.Hash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "phone, code and hash are required")
		return
	}

	verification, err := h.otp.VerifyOTP(r.Context(), req.Phone, req.Code, req.Hash, req.Username)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
			writeError(w, http.StatusUnauthorized, "verification_failed", "invalid or expired code")
			return
		}
		logRequestError(r, "verify otp upstream call failed", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "could not verify code")
		return
	}

	cs, err := h.sessions.Create(r.Context(), verification.Token, verification.Username, req.Phone)
	if err != nil {
		logRequestError(r, "session create failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not start session")
		return
	}

	// Pull the authoritative server cart. A failure here is not fatal for
	// the login, the persisted local cart stays in place.
	synced := true
	if err := cs.ctrl.SyncFromServer(r.Context()); err != nil {
		logRequestError(r, "cart sync on login failed", err)
		synced = false
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("token", func(e *jx.Encoder) { e.Str(verification.Token) })
			e.Field("username", func(e *jx.Encoder) { e.Str(verification.Username) })
			e.Field("userId", func(e *jx.Encoder) { e.Str(verification.UserID) })
			e.Field("cartSynced", func(e *jx.Encoder) { e.Bool(synced) })
		})
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	cs, ok := h.sessions.Delete(token)
	if ok {
		cs.ctrl.Clear(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeUpstreamError maps an upstream failure to a gateway error, keeping
// the upstream status visible in logs only.
func writeUpstreamError(w http.ResponseWriter, err error, message string) {
	var se *upstream.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
		return
	}
	writeError(w, http.StatusBadGateway, "upstream_error", message)
}
