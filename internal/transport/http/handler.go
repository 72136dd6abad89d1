// Package httptransport is the thin HTTP layer over the ledger services. It
// decodes requests, delegates to domain services, and translates domain
// errors to HTTP statuses; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"freightledger/internal/audit"
	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	"freightledger/internal/platform/middleware"
	"freightledger/internal/provenance"
	"freightledger/internal/shipment"
	"freightledger/internal/verification"
	id "freightledger/pkg/domain"
	"freightledger/pkg/platform/httputil"
)

type ShipmentService interface {
	CreateShipment(ctx context.Context, orderID id.OrderID, destination catalog.Address, req catalog.Requirements) (shipment.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, shipmentID id.ShipmentID, ev shipment.TrackingEvent) (shipment.Shipment, error)
	GetShipment(ctx context.Context, shipmentID id.ShipmentID) (shipment.Shipment, error)
}

type VerificationService interface {
	VerifyDelivery(ctx context.Context, shipmentID id.ShipmentID, proof []byte, report verification.Report) (verification.DeliveryVerification, error)
	Get(ctx context.Context, shipmentID id.ShipmentID) (verification.DeliveryVerification, error)
}

type ProvenanceService interface {
	RegisterProduct(ctx context.Context, productID id.ProductID, manufacturerProof, content []byte) (provenance.AuthenticationData, error)
	AuthenticateProduct(ctx context.Context, productID id.ProductID, content []byte) (bool, error)
	History(ctx context.Context, productID id.ProductID) ([]provenance.AuthenticationEvent, error)
}

type EscrowReader interface {
	Get(ctx context.Context, shipmentID id.ShipmentID) (escrow.Escrow, error)
}

type AuditLog interface {
	ListByShipment(ctx context.Context, shipmentID id.ShipmentID) ([]audit.Event, error)
}

type Handler struct {
	shipments     ShipmentService
	verifications VerificationService
	products      ProvenanceService
	escrows       EscrowReader
	auditLog      AuditLog
	validator     middleware.TokenValidator
	logger        *slog.Logger
}

func NewHandler(
	shipments ShipmentService,
	verifications VerificationService,
	products ProvenanceService,
	escrows EscrowReader,
	auditLog AuditLog,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		shipments:     shipments,
		verifications: verifications,
		products:      products,
		escrows:       escrows,
		auditLog:      auditLog,
		validator:     validator,
		logger:        logger,
	}
}

// Register wires all routes. Mutations sit behind bearer-token auth; reads
// are open.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/shipments", h.handleCreateShipment)
		r.Post("/shipments/{shipmentID}/events", h.handleTrackingEvent)
		r.Post("/shipments/{shipmentID}/verification", h.handleVerifyDelivery)
		r.Post("/products/{productID}", h.handleRegisterProduct)
		r.Post("/products/{productID}/authentication", h.handleAuthenticateProduct)
	})

	r.Get("/shipments/{shipmentID}", h.handleGetShipment)
	r.Get("/shipments/{shipmentID}/events", h.handleGetEvents)
	r.Get("/shipments/{shipmentID}/verification", h.handleGetVerification)
	r.Get("/shipments/{shipmentID}/escrow", h.handleGetEscrow)
	r.Get("/shipments/{shipmentID}/audit", h.handleAuditTrail)
	r.Get("/products/{productID}/history", h.handleProductHistory)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[createShipmentRequest](w, r, h.logger)
	if !ok {
		return
	}
	orderID, err := id.ParseOrderID(req.OrderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	shp, err := h.shipments.CreateShipment(r.Context(), orderID, req.Destination.toDomain(), req.Requirements.toDomain())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toShipmentResponse(shp))
}

func (h *Handler) handleTrackingEvent(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[trackingEventRequest](w, r, h.logger)
	if !ok {
		return
	}

	shp, err := h.shipments.UpdateShipmentStatus(r.Context(), shipmentID, req.toDomain())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toShipmentResponse(shp))
}

func (h *Handler) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	shp, err := h.shipments.GetShipment(r.Context(), shipmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toShipmentResponse(shp))
}

func (h *Handler) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	shp, err := h.shipments.GetShipment(r.Context(), shipmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toShipmentResponse(shp).Events)
}

func (h *Handler) handleVerifyDelivery(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[verifyDeliveryRequest](w, r, h.logger)
	if !ok {
		return
	}

	ver, err := h.verifications.VerifyDelivery(r.Context(), shipmentID, req.Proof, req.report())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVerificationResponse(ver))
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ver, err := h.verifications.Get(r.Context(), shipmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(ver))
}

func (h *Handler) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	esc, err := h.escrows.Get(r.Context(), shipmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEscrowResponse(esc))
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	shipmentID, err := id.ParseShipmentID(chi.URLParam(r, "shipmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.auditLog.ListByShipment(r.Context(), shipmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleRegisterProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[registerProductRequest](w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.products.RegisterProduct(r.Context(), productID, req.ManufacturerProof, req.Content); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"product_id": productID.String()})
}

func (h *Handler) handleAuthenticateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[authenticateProductRequest](w, r, h.logger)
	if !ok {
		return
	}

	authentic, err := h.products.AuthenticateProduct(r.Context(), productID, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, authenticationResponse{
		ProductID: productID.String(),
		Authentic: authentic,
	})
}

func (h *Handler) handleProductHistory(w http.ResponseWriter, r *http.Request) {
	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.products.History(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(history))
}
