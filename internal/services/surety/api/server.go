// Package api exposes the surety ledger over HTTP.
//
// Every mutation endpoint translates one request into one ledger command,
// executes it on the engine, and reports either the emitted events or the
// domain rejection. Caller identity always comes from the bearer token
// subject, never from the request body.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/skysurety/skysurety/internal/domain/airline"
	"github.com/skysurety/skysurety/internal/domain/flight"
	"github.com/skysurety/skysurety/internal/domain/insurance"
	"github.com/skysurety/skysurety/internal/domain/ops"
	"github.com/skysurety/skysurety/internal/domain/oracle"
	"github.com/skysurety/skysurety/internal/ledger/command"
	"github.com/skysurety/skysurety/internal/ledger/engine"
	apperrors "github.com/skysurety/skysurety/internal/platform/errors"
	"github.com/skysurety/skysurety/internal/platform/id"
	"github.com/skysurety/skysurety/internal/store"
)

// Service serves the ledger command and query surface.
type Service struct {
	handler *engine.Handler
	auth    *Authenticator
	hub     *Hub
}

// NewService creates the API service over an engine handler.
func NewService(handler *engine.Handler, auth *Authenticator, hub *Hub) (*Service, error) {
	if handler == nil {
		return nil, errors.New("engine handler is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Service{handler: handler, auth: auth, hub: hub}, nil
}

// Hub returns the websocket feed hub; wire it to engine.Subscribe.
func (s *Service) Hub() *Hub {
	return s.hub
}

func registerFlightStatusValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("flightstatus", func(fl validator.FieldLevel) bool {
			switch store.FlightStatus(fl.Field().Uint()) {
			case store.FlightStatusOnTime,
				store.FlightStatusLateAirline,
				store.FlightStatusLateWeather,
				store.FlightStatusLateTechnical,
				store.FlightStatusLateOther:
				return true
			}
			return false
		})
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Service) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	registerFlightStatusValidation()

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1", s.auth.Middleware())
	v1.POST("/airlines", s.handleRegisterAirline)
	v1.POST("/airlines/:id/votes", s.handleVoteAirline)
	v1.POST("/funding", s.handleFundAirline)
	v1.GET("/airlines", s.handleListAirlines)

	v1.POST("/flights", s.handleRegisterFlight)
	v1.GET("/flights", s.handleListFlights)
	v1.POST("/flights/:key/status-request", s.handleRequestStatus)

	v1.POST("/insurance", s.handleBuyInsurance)
	v1.POST("/insurance/withdrawals", s.handleWithdraw)
	v1.GET("/balance", s.handleBalance)
	v1.GET("/pool", s.handlePool)

	v1.POST("/oracles", s.handleRegisterOracle)
	v1.GET("/oracles/:id", s.handleGetOracle)
	v1.POST("/oracles/responses", s.handleOracleResponse)

	v1.POST("/operations/status", s.handleSetStatus)
	v1.POST("/operations/authorizations", s.handleAuthorizeCaller)
	v1.DELETE("/operations/authorizations/:id", s.handleDeauthorizeCaller)

	v1.GET("/events", s.hub.handleFeed)
	v1.GET("/journal", s.handleListJournal)

	return router
}

// execute runs one command and writes the outcome.
func (s *Service) execute(c *gin.Context, cmdType command.Type, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	requestID, err := id.NewID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	decision, err := s.handler.Execute(c.Request.Context(), command.Command{
		Type:        cmdType,
		CallerID:    CallerID(c),
		RequestID:   requestID,
		PayloadJSON: raw,
	})
	if err != nil {
		code := apperrors.CodeOf(err)
		c.JSON(code.HTTPStatus(), gin.H{"error": err.Error(), "code": string(code)})
		return
	}
	if len(decision.Rejections) > 0 {
		rejection := decision.Rejections[0]
		c.JSON(rejection.Code.HTTPStatus(), gin.H{
			"error": rejection.Message,
			"code":  string(rejection.Code),
		})
		return
	}

	events := make([]EventMessage, 0, len(decision.Events))
	for _, evt := range decision.Events {
		events = append(events, toEventMessage(evt))
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "operational": s.handler.Store().IsOperational()})
}

type registerAirlineRequest struct {
	AirlineID string `json:"airline_id" binding:"required"`
}

func (s *Service) handleRegisterAirline(c *gin.Context) {
	var req registerAirlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, airline.CommandTypeRegister, airline.RegisterPayload{AirlineID: req.AirlineID})
}

func (s *Service) handleVoteAirline(c *gin.Context) {
	candidate := strings.TrimSpace(c.Param("id"))
	if candidate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airline id is required"})
		return
	}
	s.execute(c, airline.CommandTypeVote, airline.VotePayload{AirlineID: candidate})
}

type fundAirlineRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

// handleFundAirline escrows the caller's own stake; airlines cannot fund
// on behalf of another airline.
func (s *Service) handleFundAirline(c *gin.Context) {
	var req fundAirlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, airline.CommandTypeFund, airline.FundPayload{Amount: req.Amount})
}

type airlineResponse struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	VoterIDs []string `json:"voter_ids,omitempty"`
}

func airlineStatusLabel(status store.AirlineStatus) string {
	switch status {
	case store.AirlineNominated:
		return "nominated"
	case store.AirlineRegistered:
		return "registered"
	case store.AirlineFunded:
		return "funded"
	default:
		return "unknown"
	}
}

func (s *Service) handleListAirlines(c *gin.Context) {
	airlines, err := s.handler.Store().ListAirlines(c.Request.Context())
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	rows := make([]airlineResponse, 0, len(airlines))
	for _, rec := range airlines {
		rows = append(rows, airlineResponse{
			ID:       rec.ID,
			Status:   airlineStatusLabel(rec.Status),
			VoterIDs: rec.VoterIDs,
		})
	}
	c.JSON(http.StatusOK, gin.H{"airlines": rows})
}

type registerFlightRequest struct {
	Name      string    `json:"name" binding:"required"`
	DepartsAt time.Time `json:"departs_at" binding:"required"`
}

func (s *Service) handleRegisterFlight(c *gin.Context) {
	var req registerFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, flight.CommandTypeRegister, flight.RegisterPayload{
		Name:      req.Name,
		DepartsAt: req.DepartsAt.Unix(),
	})
}

type flightRow struct {
	Key       string    `json:"key"`
	AirlineID string    `json:"airline_id"`
	Name      string    `json:"name"`
	DepartsAt time.Time `json:"departs_at"`
	Status    uint      `json:"status"`
}

func (s *Service) handleListFlights(c *gin.Context) {
	flights, err := s.handler.Store().ListFlights(c.Request.Context())
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	rows := make([]flightRow, 0, len(flights))
	for _, rec := range flights {
		rows = append(rows, flightRow{
			Key:       rec.Key,
			AirlineID: rec.AirlineID,
			Name:      rec.Name,
			DepartsAt: rec.DepartsAt,
			Status:    uint(rec.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"flights": rows})
}

func (s *Service) handleRequestStatus(c *gin.Context) {
	flightKey := strings.TrimSpace(c.Param("key"))
	if flightKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flight key is required"})
		return
	}
	s.execute(c, oracle.CommandTypeRequest, oracle.RequestPayload{FlightKey: flightKey})
}

type buyInsuranceRequest struct {
	FlightKey string `json:"flight_key" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
}

func (s *Service) handleBuyInsurance(c *gin.Context) {
	var req buyInsuranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, insurance.CommandTypeBuy, insurance.BuyPayload{
		FlightKey: req.FlightKey,
		Amount:    req.Amount,
	})
}

func (s *Service) handleWithdraw(c *gin.Context) {
	s.execute(c, insurance.CommandTypeWithdraw, insurance.WithdrawPayload{})
}

func (s *Service) handleBalance(c *gin.Context) {
	balance, err := s.handler.Store().CreditBalance(c.Request.Context(), CallerID(c))
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passenger_id": CallerID(c), "balance": balance})
}

func (s *Service) handlePool(c *gin.Context) {
	balance, err := s.handler.Store().PoolBalance(c.Request.Context())
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": balance})
}

type registerOracleRequest struct {
	Fee uint64 `json:"fee" binding:"required"`
}

func (s *Service) handleRegisterOracle(c *gin.Context) {
	var req registerOracleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, oracle.CommandTypeRegister, oracle.RegisterPayload{Fee: req.Fee})
}

func (s *Service) handleGetOracle(c *gin.Context) {
	oracleID := strings.TrimSpace(c.Param("id"))
	if oracleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "oracle id is required"})
		return
	}
	rec, err := s.handler.Store().GetOracle(c.Request.Context(), oracleID)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      rec.ID,
		"indexes": []uint8{rec.Indexes[0], rec.Indexes[1], rec.Indexes[2]},
	})
}

type oracleResponseRequest struct {
	FlightKey string `json:"flight_key" binding:"required"`
	Index     uint8  `json:"index"`
	Status    uint   `json:"status" binding:"required,flightstatus"`
}

func (s *Service) handleOracleResponse(c *gin.Context) {
	var req oracleResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, oracle.CommandTypeReport, oracle.ReportPayload{
		FlightKey: req.FlightKey,
		Index:     req.Index,
		Status:    req.Status,
	})
}

type setStatusRequest struct {
	Operational *bool `json:"operational" binding:"required"`
}

func (s *Service) handleSetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, ops.CommandTypeSetStatus, ops.StatusPayload{Operational: *req.Operational})
}

type authorizeCallerRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

func (s *Service) handleAuthorizeCaller(c *gin.Context) {
	var req authorizeCallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.execute(c, ops.CommandTypeAuthorize, ops.CallerPayload{TargetID: req.TargetID})
}

func (s *Service) handleDeauthorizeCaller(c *gin.Context) {
	target := strings.TrimSpace(c.Param("id"))
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target id is required"})
		return
	}
	s.execute(c, ops.CommandTypeDeauthorize, ops.CallerPayload{TargetID: target})
}

// handleListJournal replays the event log so followers can catch up before
// switching to the live feed.
func (s *Service) handleListJournal(c *gin.Context) {
	afterSeq, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a sequence number"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}
	events, err := s.handler.Journal().ListEvents(c.Request.Context(), afterSeq, limit)
	if err != nil {
		s.writeStoreError(c, err)
		return
	}
	messages := make([]EventMessage, 0, len(events))
	for _, evt := range events {
		messages = append(messages, toEventMessage(evt))
	}
	c.JSON(http.StatusOK, gin.H{"events": messages})
}

func (s *Service) writeStoreError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	c.JSON(code.HTTPStatus(), gin.H{"error": err.Error(), "code": string(code)})
}
