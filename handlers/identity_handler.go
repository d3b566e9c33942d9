package handlers

import (
	"net/http"

	"github.com/upb/appservice-auth/appservice"
	"github.com/upb/appservice-auth/middleware"
	"github.com/upb/appservice-auth/utils"
	"go.uber.org/zap"
)

// IdentityResponse is the principal as returned by GET /api/v1/me
type IdentityResponse struct {
	Name               string             `json:"name"`
	AuthenticationType string             `json:"authentication_type"`
	Provider           string             `json:"provider,omitempty"`
	Claims             []appservice.Claim `json:"claims"`
	Roles              []string           `json:"roles"`
}

// IdentityHandler exposes the principal attached by the auth middleware
type IdentityHandler struct {
	logger *zap.Logger
}

// NewIdentityHandler creates a new IdentityHandler
func NewIdentityHandler(logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{logger: logger}
}

// HandleMe handles GET /api/v1/me
func (h *IdentityHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "", nil)
		return
	}

	provider, _ := principal.Identity.FindFirst(appservice.ClaimTypeProviderName)
	response := IdentityResponse{
		Name:               principal.Identity.Name,
		AuthenticationType: principal.Identity.AuthenticationType,
		Provider:           provider,
		Claims:             principal.Identity.Claims,
		Roles:              principal.Roles,
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write identity response",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}
