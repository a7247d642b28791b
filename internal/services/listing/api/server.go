// Package api exposes the flight read model over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skysurety/skysurety/internal/services/listing/storage"
)

// Service serves flight listings from a FlightStorage backend.
type Service struct {
	store storage.FlightStorage
}

// NewService creates a listing API service over the provided storage.
func NewService(store storage.FlightStorage) *Service {
	return &Service{store: store}
}

// Router builds the gin engine with all listing routes mounted.
func (s *Service) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", s.handleHealth)
	router.GET("/v1/flights", s.handleListFlights)
	router.GET("/v1/flights/:key", s.handleGetFlight)
	return router
}

type flightResponse struct {
	FlightKey string    `json:"flight_key"`
	AirlineID string    `json:"airline_id"`
	Name      string    `json:"name"`
	DepartsAt time.Time `json:"departs_at"`
	Status    uint      `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFlightResponse(listing storage.FlightListing) flightResponse {
	return flightResponse{
		FlightKey: listing.FlightKey,
		AirlineID: listing.AirlineID,
		Name:      listing.Name,
		DepartsAt: listing.DepartsAt,
		Status:    listing.Status,
		UpdatedAt: listing.UpdatedAt,
	}
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Service) handleListFlights(c *gin.Context) {
	if s == nil || s.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage is not configured"})
		return
	}
	listings, err := s.store.ListFlights(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	flights := make([]flightResponse, 0, len(listings))
	for _, listing := range listings {
		flights = append(flights, toFlightResponse(listing))
	}
	c.JSON(http.StatusOK, gin.H{"flights": flights})
}

func (s *Service) handleGetFlight(c *gin.Context) {
	if s == nil || s.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage is not configured"})
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flight key is required"})
		return
	}
	listing, err := s.store.GetFlight(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "flight not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(listing))
}
