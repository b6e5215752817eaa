package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medsupply/internal/domain"
	"medsupply/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type grantRoleRequest struct {
	Grantee string `json:"grantee"`
	Role    string `json:"role"`
}

type mintRequest struct {
	MedicineID    string `json:"medicine_id"`
	Name          string `json:"name"`
	ExpirySeconds int64  `json:"expiry_seconds"`
}

type mintResponse struct {
	TokenID          int64                      `json:"token_id"`
	PredictedTokenID int64                      `json:"predicted_token_id"`
	Reconciled       bool                       `json:"reconciled"`
	Warning          string                     `json:"warning,omitempty"`
	MetadataCID      string                     `json:"metadata_cid"`
	MetadataURI      string                     `json:"metadata_uri"`
	QRCID            string                     `json:"qr_cid"`
	QRURI            string                     `json:"qr_uri"`
	Payload          domain.VerificationPayload `json:"payload"`
}

type transferRequest struct {
	To string `json:"to"`
}

type dispenseRequest struct {
	PatientAddress string `json:"patient_address"`
}

type dispenseResponse struct {
	TokenID        int64  `json:"token_id"`
	PrescriptionID int64  `json:"prescription_id"`
	MedicineID     string `json:"medicine_id"`
	Patient        string `json:"patient"`
}

type createPrescriptionRequest struct {
	PatientAddress string `json:"patient_address"`
	MedicineID     string `json:"medicine_id"`
	ValidityDays   int    `json:"validity_days"`
}

type createClaimRequest struct {
	PrescriptionID int64 `json:"prescription_id"`
}

type processClaimRequest struct {
	Approve bool `json:"approve"`
}

type tokenResponse struct {
	TokenID         int64  `json:"token_id"`
	MedicineID      string `json:"medicine_id"`
	Name            string `json:"name"`
	ExpiryTimestamp string `json:"expiry_timestamp"`
	Status          string `json:"status"`
	CurrentHolder   string `json:"current_holder"`
	MetadataURI     string `json:"metadata_uri"`
	MintedBy        string `json:"minted_by"`
	CreatedAt       string `json:"created_at"`
}

type verifyTokenResponse struct {
	tokenResponse
	IsExpired  bool   `json:"is_expired"`
	VerifiedAt string `json:"verified_at"`
}

type prescriptionResponse struct {
	ID             int64  `json:"id"`
	PatientAddress string `json:"patient_address"`
	MedicineID     string `json:"medicine_id"`
	ValidUntil     string `json:"valid_until"`
	Consumed       bool   `json:"consumed"`
	IssuedBy       string `json:"issued_by"`
	CreatedAt      string `json:"created_at"`
	ConsumedAt     string `json:"consumed_at,omitempty"`
}

type claimResponse struct {
	ClaimID        int64  `json:"claim_id"`
	PrescriptionID int64  `json:"prescription_id"`
	IsApproved     bool   `json:"is_approved"`
	Processed      bool   `json:"processed"`
	ClaimedBy      string `json:"claimed_by"`
	CreatedAt      string `json:"created_at"`
	ProcessedAt    string `json:"processed_at,omitempty"`
	ProcessedBy    string `json:"processed_by,omitempty"`
}

func (s *Server) handleNoRoute(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		switch c.Request.URL.Path {
		case "/v1/roles:grant":
			s.handleGrantRole(c)
			return
		case "/v1/roles:register_patient":
			s.handleRegisterPatient(c)
			return
		case "/v1/drugs:mint":
			s.handleMint(c)
			return
		case "/v1/drugs:dispense":
			s.handleDispense(c)
			return
		}
	}
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func (s *Server) handleGrantRole(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeRolesGrant, caller) {
		return
	}
	var req grantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ROLE", "unknown role")
		return
	}
	if err := s.registry.Grant(c.Request.Context(), caller, req.Grantee, role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegisterPatient(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeRolesRegister, caller) {
		return
	}
	if err := s.registry.RegisterPatient(c.Request.Context(), caller); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListRoles(c *gin.Context) {
	identity := c.Param("identity")
	roles, err := s.registry.RolesOf(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	c.JSON(http.StatusOK, gin.H{"identity": identity, "roles": names})
}

func (s *Server) handleMint(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeDrugsMint, caller) {
		return
	}
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	receipt, err := s.pipeline.Execute(c.Request.Context(), usecase.PipelineMintRequest{
		Caller:        caller,
		MedicineID:    req.MedicineID,
		Name:          req.Name,
		ExpirySeconds: req.ExpirySeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mintResponse{
		TokenID:          receipt.TokenID,
		PredictedTokenID: receipt.PredictedTokenID,
		Reconciled:       receipt.Reconciled,
		Warning:          receipt.WarningCode,
		MetadataCID:      receipt.MetadataArtifact.CID,
		MetadataURI:      receipt.MetadataArtifact.URI,
		QRCID:            receipt.QRArtifact.CID,
		QRURI:            receipt.QRArtifact.URI,
		Payload:          receipt.Payload,
	})
}

func (s *Server) handleVerifyToken(c *gin.Context) {
	tokenID, err := strconv.ParseInt(c.Param("token_id"), 10, 64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_TOKEN_ID", "token id must be an integer")
		return
	}
	caller := callerAddress(c)
	result, err := s.ledger.Verify(c.Request.Context(), caller, tokenID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyTokenResponse{
		tokenResponse: buildTokenResponse(result.Token),
		IsExpired:     result.IsExpired,
		VerifiedAt:    result.VerifiedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTokenAction(c *gin.Context) {
	segment := c.Param("token_id_action")
	parts := strings.SplitN(segment, ":", 2)
	if len(parts) != 2 {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	tokenID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_TOKEN_ID", "token id must be an integer")
		return
	}
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeDrugsTransfer, caller) {
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	switch parts[1] {
	case "transfer_intermediary":
		err = s.ledger.TransferToIntermediary(c.Request.Context(), caller, tokenID, req.To)
	case "transfer_pharmacy":
		err = s.ledger.TransferToPharmacy(c.Request.Context(), caller, tokenID, req.To)
	default:
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDispense(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeDrugsDispense, caller) {
		return
	}
	var req dispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	receipt, err := s.dispenser.Dispense(c.Request.Context(), caller, req.PatientAddress)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dispenseResponse{
		TokenID:        receipt.TokenID,
		PrescriptionID: receipt.PrescriptionID,
		MedicineID:     receipt.MedicineID,
		Patient:        receipt.Patient,
	})
}

func (s *Server) handleCreatePrescription(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routePrescriptionsNew, caller) {
		return
	}
	var req createPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	id, err := s.prescriptions.Create(c.Request.Context(), usecase.CreatePrescriptionRequest{
		Caller:         caller,
		PatientAddress: req.PatientAddress,
		MedicineID:     req.MedicineID,
		ValidityDays:   req.ValidityDays,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleMyPrescriptions(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	prescriptions, err := s.prescriptions.Mine(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]prescriptionResponse, 0, len(prescriptions))
	for _, p := range prescriptions {
		out = append(out, buildPrescriptionResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateClaim(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeClaimsCreate, caller) {
		return
	}
	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	claimID, err := s.claims.Create(c.Request.Context(), caller, req.PrescriptionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim_id": claimID})
}

func (s *Server) handleListPendingClaims(c *gin.Context) {
	caller, ok := s.requireCaller(c)
	if !ok {
		return
	}
	claims, err := s.claims.ListPending(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]claimResponse, 0, len(claims))
	for _, claim := range claims {
		out = append(out, buildClaimResponse(claim))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleClaimAction(c *gin.Context) {
	segment := c.Param("claim_id_action")
	parts := strings.SplitN(segment, ":", 2)
	if len(parts) != 2 {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	claimID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_CLAIM_ID", "claim id must be an integer")
		return
	}
	if parts[1] != "process" {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	caller, ok := s.requireCaller(c)
	if !ok || !s.enforceRateLimit(c, routeClaimsProcess, caller) {
		return
	}
	var req processClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if err := s.claims.Process(c.Request.Context(), caller, claimID, req.Approve); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func buildTokenResponse(token domain.DrugToken) tokenResponse {
	return tokenResponse{
		TokenID:         token.TokenID,
		MedicineID:      token.MedicineID,
		Name:            token.Name,
		ExpiryTimestamp: token.ExpiryTimestamp.UTC().Format(time.RFC3339),
		Status:          string(token.Status),
		CurrentHolder:   token.CurrentHolder,
		MetadataURI:     token.MetadataURI,
		MintedBy:        token.MintedBy,
		CreatedAt:       token.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func buildPrescriptionResponse(p domain.Prescription) prescriptionResponse {
	out := prescriptionResponse{
		ID:             p.ID,
		PatientAddress: p.PatientAddress,
		MedicineID:     p.MedicineID,
		ValidUntil:     p.ValidUntil.UTC().Format(time.RFC3339),
		Consumed:       p.Consumed,
		IssuedBy:       p.IssuedBy,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.ConsumedAt != nil {
		out.ConsumedAt = p.ConsumedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildClaimResponse(claim domain.InsuranceClaim) claimResponse {
	out := claimResponse{
		ClaimID:        claim.ClaimID,
		PrescriptionID: claim.PrescriptionID,
		IsApproved:     claim.IsApproved,
		Processed:      claim.Processed,
		ClaimedBy:      claim.ClaimedBy,
		CreatedAt:      claim.CreatedAt.UTC().Format(time.RFC3339),
		ProcessedBy:    claim.ProcessedBy,
	}
	if claim.ProcessedAt != nil {
		out.ProcessedAt = claim.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNotOwner):
		status, code = http.StatusForbidden, "NOT_OWNER"
	case errors.Is(err, domain.ErrRoleMismatch):
		status, code = http.StatusForbidden, "ROLE_MISMATCH"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrNoMatchingPrescription):
		status, code = http.StatusNotFound, "NO_MATCHING_PRESCRIPTION"
	case errors.Is(err, domain.ErrWrongState):
		status, code = http.StatusConflict, "WRONG_STATE"
	case errors.Is(err, domain.ErrExpired):
		status, code = http.StatusConflict, "EXPIRED"
	case errors.Is(err, domain.ErrNoInventory):
		status, code = http.StatusConflict, "NO_INVENTORY"
	case errors.Is(err, domain.ErrAlreadyProcessed):
		status, code = http.StatusConflict, "ALREADY_PROCESSED"
	case errors.Is(err, domain.ErrNotEligible):
		status, code = http.StatusConflict, "NOT_ELIGIBLE"
	default:
		if _, ok := domain.IsPipelineError(err); ok {
			status, code = http.StatusBadGateway, "ARTIFACT_PIPELINE_FAILURE"
		}
	}
	var details map[string]any
	if perr, ok := domain.IsPipelineError(err); ok {
		details = map[string]any{"step": perr.Step}
	}
	c.JSON(status, errorResponse{
		Code:    code,
		Message: err.Error(),
		Details: details,
	})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
