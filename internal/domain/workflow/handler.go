package workflow

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carebook/carebook/internal/domain/patient"
)

// startRequest is the wire shape of POST /workflow/start.
type startRequest struct {
	FullName         string `json:"full_name"`
	DateOfBirth      string `json:"date_of_birth"`
	DoctorPreference string `json:"doctor_preference,omitempty"`
	Location         string `json:"location,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Insurance        string `json:"insurance,omitempty"`
}

// Handler exposes the workflow over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes registers workflow routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/workflow/start", h.HandleStart)
}

// HandleStart handles POST /workflow/start. A saturated window is a 200
// with status no_slots; only invalid input and infrastructure failures
// are HTTP errors.
func (h *Handler) HandleStart(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	dob, err := time.Parse(patient.DateLayout, req.DateOfBirth)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "date_of_birth must be YYYY-MM-DD"})
	}

	result, err := h.service.Start(c.Request().Context(), Input{
		FullName:         req.FullName,
		DateOfBirth:      dob,
		DoctorPreference: req.DoctorPreference,
		Location:         req.Location,
		Email:            req.Email,
		Phone:            req.Phone,
		Insurance:        req.Insurance,
	})
	if err != nil {
		if errors.Is(err, patient.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "workflow failed"})
	}

	return c.JSON(http.StatusOK, result)
}
