package usermanagement

import (
	"fmt"
	"net/http"

	"elearning-platform/backend/internal/identity"
	"elearning-platform/backend/internal/telemetry"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"pkt.systems/pslog"
)

// ListUsersPageSize is the number of accounts returned by ListUsersHandler.
const ListUsersPageSize = 10

// UserHandler serves the admin user endpoints.
type UserHandler struct {
	Admin   *identity.Capability
	Metrics *telemetry.Metrics
	Logger  pslog.Logger
}

// NewUserHandler binds the handlers to the bootstrap outcome.
func NewUserHandler(admin *identity.Capability, metrics *telemetry.Metrics, logger pslog.Logger) *UserHandler {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &UserHandler{Admin: admin, Metrics: metrics, Logger: logger}
}

// ListUsersHandler returns the first page of Firebase accounts as the SDK
// returned them. It answers 503 without calling out when the admin client
// is unavailable.
func (h *UserHandler) ListUsersHandler(c *gin.Context) {
	users, err := h.Admin.Users()
	if err != nil {
		h.Metrics.ObserveListUsers(telemetry.OutcomeUnavailable)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": identity.ErrNotInitialized.Error()})
		return
	}

	records, err := users.ListUsers(c.Request.Context(), ListUsersPageSize)
	if err != nil {
		h.Metrics.ObserveListUsers(telemetry.OutcomeError)
		logger := h.Logger.With("request_id", c.GetString(telemetry.RequestIDKey))
		logger.Error("list users failed", "error", err.Error())
		logger.Debug("list users failure detail", "trace", fmt.Sprintf("%+v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if records == nil {
		records = []*auth.ExportedUserRecord{} // Return empty array instead of null
	}
	h.Metrics.ObserveListUsers(telemetry.OutcomeOK)
	c.JSON(http.StatusOK, records)
}
