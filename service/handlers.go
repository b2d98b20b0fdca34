package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"perpsign/boundary"
	"perpsign/shared"
)

// POST /v1/keys/derive
func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req shared.DeriveKeyRequest
	if !s.decode(w, r, &req) {
		return
	}

	kp, err := boundary.DeriveKeyPair(req.EthSignature)
	s.metrics.observeOperation("derive", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kp)
}

// POST /v1/orders/hash
func (s *Server) handleHashOrder(w http.ResponseWriter, r *http.Request) {
	var req shared.HashOrderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ChainID == "" {
		req.ChainID = s.cfg.ChainID
	}

	hash, err := boundary.HashOrderRequest(req)
	s.metrics.observeOperation("hash_order", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.HashResponse{Hash: hash})
}

// POST /v1/sign
func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req shared.SignRequest
	if !s.decode(w, r, &req) {
		return
	}

	sig, err := boundary.Sign(req.Message, req.PrivateKey)
	s.metrics.observeOperation("sign", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.SignatureResponse{R: sig.R, S: sig.S, V: sig.V})
}

// POST /v1/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req shared.VerifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	ok, err := boundary.Verify(req.Message, boundary.SignatureHex{R: req.R, S: req.S}, req.PublicKey)
	s.metrics.observeOperation("verify", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.VerifyResponse{Valid: ok})
}

// GET /health - liveness only, there are no dependencies to probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   s.cfg.Version,
		"chain_id":  s.cfg.ChainID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

type validatable interface {
	Validate() error
}

// decode reads a size-limited JSON body into dst, rejecting unknown fields,
// then runs tag validation and dst's own Validate. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeStatus(w, r, http.StatusRequestEntityTooLarge, shared.ErrCodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.writeStatus(w, r, http.StatusBadRequest, shared.ErrCodeInvalidInput, "invalid JSON body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest, shared.ErrCodeInvalidInput, describeValidation(err))
		return false
	}
	if v, ok := dst.(validatable); ok {
		if err := v.Validate(); err != nil {
			s.writeError(w, r, err)
			return false
		}
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, "; ")
}

// errorCode classifies err for clients and metrics labels.
func errorCode(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL_ERROR"
}

func statusFor(code string) int {
	switch code {
	case shared.ErrCodeInvalidHexEncoding,
		shared.ErrCodeInvalidSignatureLength,
		shared.ErrCodeFieldRange,
		shared.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case shared.ErrCodeSigning:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a classified error to its status. Only the sanitized
// message is returned. Messages can echo caller input, which may be key
// material, so rejections are logged by code alone.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorCode(err)
	status := statusFor(code)

	message := "internal error"
	var se *shared.Error
	if errors.As(err, &se) {
		message = se.Error()
	}

	fields := []zap.Field{
		zap.String("request_id", requestID(r)),
		zap.String("path", r.URL.Path),
		zap.String("code", code),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("request rejected", fields...)
	}

	s.writeStatus(w, r, status, code, message)
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, shared.ErrorResponse{
		Code:      code,
		Error:     message,
		RequestID: requestID(r),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
