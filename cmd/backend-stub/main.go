// Command backend-stub is a minimal stand-in for the booking/OTP backend.
// It accepts a single fixed OTP code, hands out bearer tokens, serves an
// empty server-side cart, and acknowledges bookings. Used for local
// development and the integration test compose stack.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type stub struct {
	code string

	mu     sync.Mutex
	tokens map[string]string
}

func main() {
	var (
		addr string
		code string
	)
	flag.StringVar(&addr, "addr", "0.0.0.0:8081", "listen address")
	flag.StringVar(&code, "code", "1234", "OTP code the stub accepts")
	flag.Parse()

	s := &stub{code: code, tokens: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /send-otp", s.sendOTP)
	mux.HandleFunc("POST /verify-otp", s.verifyOTP)
	mux.HandleFunc("GET /api/cart", s.cart)
	mux.HandleFunc("POST /api/book-services", s.book)

	slog.Info("backend stub listening", slog.String("addr", addr), slog.String("code", code))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func (s *stub) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	hash := hex.EncodeToString(buf)

	slog.Info("otp issued", slog.String("phone", req.Phone), slog.String("hash", hash))
	writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}

func (s *stub) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Code     string `json:"code"`
		Hash     string `json:"hash"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Code != s.code || req.Hash == "" {
		http.Error(w, "invalid or expired code", http.StatusBadRequest)
		return
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = req.Phone
	s.mu.Unlock()

	username := req.Username
	if username == "" {
		username = "User"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "OTP verified",
		"token":    token,
		"username": username,
		"userId":   uuid.New().String(),
	})
}

func (s *stub) cart(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
}

func (s *stub) book(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderDetails json.RawMessage `json:"orderDetails"`
		PhoneNumber  string          `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.OrderDetails) == 0 {
		http.Error(w, "orderDetails is required", http.StatusBadRequest)
		return
	}

	id := uuid.New().String()
	slog.Info("booking accepted", slog.String("bookingId", id), slog.String("phone", req.PhoneNumber))
	writeJSON(w, http.StatusOK, map[string]string{"bookingId": id})
}

func (s *stub) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth || token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
