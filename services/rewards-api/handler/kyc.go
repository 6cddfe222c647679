package handler

import (
	"net/http"

	"github.com/ramiqadoumi/go-earn-flow/internal/kyc"
)

// KYCResponse is returned by every KYC endpoint.
type KYCResponse struct {
	kyc.State
	FaceVerified bool `json:"is_face_verified"`
	KycVerified  bool `json:"is_kyc_verified"`
}

// FaceRequest carries a base64-encoded capture.
type FaceRequest struct {
	Image []byte `json:"image"`
}

// FaceResponse adds the provider verdict to the wizard state.
type FaceResponse struct {
	KYCResponse
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// OTPRequest is the POST /api/v1/kyc/otp/verify body.
type OTPRequest struct {
	Code string `json:"code" validate:"required,numeric,len=4"`
}

// KYCState handles GET /api/v1/kyc.
func (h *REST) KYCState(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, kycResponse(s.KYC.State(), s.Profile().IsFaceVerified, s.Profile().IsKycVerified))
}

// SubmitDocuments handles POST /api/v1/kyc/documents.
func (h *REST) SubmitDocuments(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := s.KYC.SubmitDocuments(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.KYCState(w, r)
}

// SubmitFace handles POST /api/v1/kyc/face. It blocks while the provider
// verifies the capture.
func (h *REST) SubmitFace(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req FaceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.KYC.SubmitFace(r.Context(), req.Image)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	u := s.Profile()
	writeJSON(w, http.StatusOK, FaceResponse{
		KYCResponse: kycResponse(s.KYC.State(), u.IsFaceVerified, u.IsKycVerified),
		Approved:    res.Approved,
		Reason:      res.Reason,
	})
}

// SendOTP handles POST /api/v1/kyc/otp.
func (h *REST) SendOTP(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := s.KYC.SendOTP(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.KYCState(w, r)
}

// VerifyOTP handles POST /api/v1/kyc/otp/verify.
func (h *REST) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req OTPRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if err := s.KYC.VerifyOTP(r.Context(), req.Code); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.KYCState(w, r)
}

func kycResponse(st kyc.State, face, verified bool) KYCResponse {
	return KYCResponse{State: st, FaceVerified: face, KycVerified: verified}
}
