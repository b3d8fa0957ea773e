package adaptor

import (
	"encoding/json"
	"net/http"

	"smart-bus/internal/apperr"
	"smart-bus/pkg/utils"

	"go.uber.org/zap"
)

type errorBody struct {
	Kind   apperr.Kind `json:"kind"`
	Entity string      `json:"entity,omitempty"`
	ID     string      `json:"id,omitempty"`
}

// statusFor maps an engine error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindAlreadyTerminal:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case apperr.KindRestrictionViolation, apperr.KindWalletInactive:
		return http.StatusForbidden
	case apperr.KindGateway:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleServiceError writes err as a JSON error response. Unclassified
// errors are logged and reported as 500 without their text.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	code := statusFor(e.Kind)
	if code >= http.StatusInternalServerError {
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
	} else {
		log.Warn(operation+" rejected",
			zap.String("kind", string(e.Kind)),
			zap.String("operation", operation),
			zap.String("reason", e.Error()))
	}

	utils.ResponseError(w, code, e.Error(), errorBody{Kind: e.Kind, Entity: e.Entity, ID: e.ID})
}

// decodeAndValidate reads a JSON body into req and runs struct validation.
// It writes the 400 itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decodeJSON(r, req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// identity reads the caller set by JWTAuth and answers 401 when it is missing.
func identity(w http.ResponseWriter, r *http.Request) (utils.Identity, bool) {
	id, ok := utils.GetIdentity(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return id, ok
}
