package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"servicecart/internal/domain/catalog"
	"servicecart/internal/upstream"
)

// phonePattern accepts an international number with a leading plus and
// exactly twelve digits.
var phonePattern = regexp.MustCompile(`^\+\d{12}$`)

// OTPClient covers the two auth calls the handler forwards upstream.
type OTPClient interface {
	SendOTP(ctx context.Context, phone, username string) (*upstream.OTPChallenge, error)
	VerifyOTP(ctx context.Context, phone, code, hash, username string) (*upstream.Verification, error)
}

// Handler serves the storefront HTTP API: OTP auth, the service catalog,
// per-session cart operations, and booking submission.
type Handler struct {
	catalog  catalog.Repository
	otp      OTPClient
	sessions *SessionRegistry
}

// NewHandler constructs a Handler with its domain dependencies.
func NewHandler(cat catalog.Repository, otp OTPClient, sessions *SessionRegistry) *Handler {
	return &Handler{
		catalog:  cat,
		otp:      otp,
		sessions: sessions,
	}
}

// Routes builds the request mux for the API surface.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /send-otp", h.sendOTP)
	mux.HandleFunc("POST /verify-otp", h.verifyOTP)
	mux.HandleFunc("POST /logout", h.logout)

	mux.HandleFunc("GET /api/services", h.listServices)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/coupon", h.applyCoupon)

	mux.HandleFunc("POST /api/book-services", h.bookServices)

	return mux
}

// session resolves the bearer token to a live cart session, writing a 401
// response and returning false when it cannot.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cartSession, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	cs, ok := h.sessions.Get(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unknown or expired session")
		return nil, false
	}
	return cs, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

// writeJSON encodes a jx-built payload with the given status.
func writeJSON(w http.ResponseWriter, status int, build func(e *jx.Encoder)) {
	var e jx.Encoder
	build(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError emits the {code, message} error envelope shared by all
// endpoints.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// decodeBody parses the request body with jx, enforcing a sane size cap.
func decodeBody(r *http.Request, parse func(d *jx.Decoder) error) error {
	d := jx.Decode(http.MaxBytesReader(nil, r.Body, 1<<20), 4096)
	return parse(d)
}

func logRequestError(r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Warn(msg, zap.Error(err))
}
