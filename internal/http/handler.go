package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/tidepredictor/internal/domain"
	"go.ngs.io/tidepredictor/internal/usecase"
)

// Handler handles HTTP requests for tide and current predictions.
type Handler struct {
	predictionUC *usecase.PredictionUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(predictionUC *usecase.PredictionUseCase) *Handler {
	return &Handler{
		predictionUC: predictionUC,
	}
}

// GetLevels handles GET /v1/tides/levels.
func (h *Handler) GetLevels(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}
	h.respond(c, h.predictionUC.PredictLevels, req)
}

// GetCurrents handles GET /v1/currents.
func (h *Handler) GetCurrents(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}
	h.respond(c, h.predictionUC.PredictCurrents, req)
}

// GetProfile handles GET /v1/currents/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	req, ok := parseRequest(c)
	if !ok {
		return
	}

	if levelsStr := c.Query("levels"); levelsStr != "" {
		for _, s := range strings.Split(levelsStr, ",") {
			z, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid level %q: %v", s, err)})
				return
			}
			req.Levels = append(req.Levels, z)
		}
	}
	if alphaStr := c.Query("alpha"); alphaStr != "" {
		alpha, err := strconv.ParseFloat(alphaStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid alpha: %v", err)})
			return
		}
		req.Alpha = &alpha
	}

	h.respond(c, h.predictionUC.PredictProfile, req)
}

func (h *Handler) respond(c *gin.Context, predict func(usecase.PredictionRequest) (*usecase.PredictionResponse, error), req usecase.PredictionRequest) {
	response, err := predict(req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOutOfDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownConstituent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseRequest reads the query parameters shared by every prediction
// endpoint. It writes a 400 response and returns false on bad input.
func parseRequest(c *gin.Context) (usecase.PredictionRequest, bool) {
	var req usecase.PredictionRequest

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	startStr := c.Query("start")
	endStr := c.Query("end")
	intervalStr := c.Query("interval")

	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon parameters are required"})
		return req, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return req, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return req, false
	}
	req.Lat = &lat
	req.Lon = &lon

	if startStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start parameter is required"})
		return req, false
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
		return req, false
	}
	req.Start = start.UTC()

	// End defaults to one day after start.
	req.End = req.Start.Add(24 * time.Hour)
	if endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
			return req, false
		}
		req.End = end.UTC()
	}

	if intervalStr == "" {
		intervalStr = "30m"
	}
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid interval: %v", err)})
		return req, false
	}
	req.Interval = interval

	return req, true
}

// ConstituentListResponse is one entry of GET /v1/constituents.
type ConstituentListResponse struct {
	Name          string  `json:"name"`
	SpeedDegPerHr float64 `json:"speed_deg_per_hr"`
	Compound      bool    `json:"compound,omitempty"`
	Description   string  `json:"description,omitempty"`
}

var descriptions = map[string]string{
	"M2":  "Principal lunar semidiurnal",
	"S2":  "Principal solar semidiurnal",
	"N2":  "Larger lunar elliptic semidiurnal",
	"K2":  "Lunisolar semidiurnal",
	"K1":  "Lunisolar diurnal",
	"O1":  "Principal lunar diurnal",
	"P1":  "Principal solar diurnal",
	"Q1":  "Larger lunar elliptic diurnal",
	"M4":  "Shallow water overtide of M2",
	"M6":  "Shallow water overtide of M2",
	"MN4": "Shallow water quarter diurnal",
	"MS4": "Shallow water quarter diurnal",
	"MF":  "Lunisolar fortnightly",
	"MM":  "Lunar monthly",
	"SSA": "Solar semiannual",
	"SA":  "Solar annual",
}

// GetConstituents handles GET /v1/constituents.
func (h *Handler) GetConstituents(c *gin.Context) {
	constituents := h.predictionUC.GetAllConstituents()

	response := make([]ConstituentListResponse, len(constituents))
	for i, con := range constituents {
		response[i] = ConstituentListResponse{
			Name:          con.Name,
			SpeedDegPerHr: con.SpeedDegPerHr,
			Compound:      con.IsCompound(),
			Description:   descriptions[strings.ToUpper(con.Name)],
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"constituents": response,
		"count":        len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
