package httptransport_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"freightledger/internal/audit"
	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	escrowmocks "freightledger/internal/escrow/mocks"
	jwttoken "freightledger/internal/jwt_token"
	"freightledger/internal/platform/logger"
	"freightledger/internal/provenance"
	"freightledger/internal/registry"
	"freightledger/internal/shipment"
	httptransport "freightledger/internal/transport/http"
	"freightledger/internal/verification"
	id "freightledger/pkg/domain"
)

const (
	orderID    = id.OrderID("ord-1")
	carrierID  = id.CarrierID("carrier-1")
	operator   = id.AccountID("acct-carrier")
	verifierID = id.AccountID("acct-verifier")
)

type HandlerSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockTransfer *escrowmocks.MockTokenTransfer
	jwt          *jwttoken.JWTService
	server       *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mockTransfer = escrowmocks.NewMockTokenTransfer(s.ctrl)

	warehouses := catalog.NewInMemoryWarehouseStore()
	carriers := catalog.NewInMemoryCarrierStore()
	orders := catalog.NewInMemoryOrderStore()
	s.Require().NoError(warehouses.Put(ctx, catalog.WarehouseInfo{
		ID:            id.WarehouseID("wh-1"),
		Region:        catalog.Region("eu-west"),
		CapacityUnits: 10_000,
		Status:        catalog.WarehouseActive,
	}))
	s.Require().NoError(carriers.Put(ctx, catalog.CarrierInfo{
		ID:       carrierID,
		Coverage: []catalog.Region{"eu-west"},
		Active:   true,
	}))
	s.Require().NoError(orders.Put(ctx, catalog.FulfillmentOrder{
		ID:         orderID,
		Status:     catalog.OrderOpen,
		ValueCents: 30_000,
		Payee:      id.AccountID("acct-payee"),
	}))

	registryStore := registry.NewInMemoryStore()
	s.Require().NoError(registryStore.SetCarrierOperator(ctx, carrierID, operator))
	public, private, err := registry.SignatureMode.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.Require().NoError(registryStore.PutAccount(ctx, registry.Account{
		ID:     verifierID,
		Roles:  []registry.Role{registry.RoleVerifier},
		Active: true,
	}))
	s.Require().NoError(registryStore.PutVerifierKey(ctx, verifierID, public.Bytes()))
	keyring := registry.NewMemoryKeyring()
	keyring.Add(verifierID, private)

	reg, err := registry.New(registryStore, carriers)
	s.Require().NoError(err)

	sealPub, _, err := provenance.SealScheme.GenerateKeyPair()
	s.Require().NoError(err)
	sealer, err := provenance.NewSealer(sealPub)
	s.Require().NoError(err)

	engine, err := escrow.New(escrow.NewInMemoryStore(), s.mockTransfer)
	s.Require().NoError(err)

	auditLog := audit.NewPublisher(audit.NewInMemoryStore())

	shipmentStore := shipment.NewInMemoryStore()
	shipments, err := shipment.New(shipmentStore, orders,
		catalog.NewSelector(warehouses, carriers), reg, sealer, engine,
		shipment.WithAuditPublisher(auditLog))
	s.Require().NoError(err)

	verifications, err := verification.New(verification.NewInMemoryStore(),
		shipmentStore, keyring, reg, engine)
	s.Require().NoError(err)

	products, err := provenance.New(provenance.NewInMemoryStore(), reg)
	s.Require().NoError(err)

	s.jwt = jwttoken.NewJWTService("test-key", "freightledger", "freightledger-api")
	handler := httptransport.NewHandler(shipments, verifications, products, engine, auditLog, s.jwt, logger.New())
	s.server = httptest.NewServer(httptransport.NewRouter(handler, nil))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
	s.ctrl.Finish()
}

func (s *HandlerSuite) token(account id.AccountID) string {
	token, err := s.jwt.GenerateAccessToken(account, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) do(method, path, token string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response, out any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *HandlerSuite) createShipment() string {
	resp := s.do(http.MethodPost, "/shipments", s.token(operator), map[string]any{
		"order_id":     orderID.String(),
		"destination":  map[string]any{"region": "eu-west"},
		"requirements": map[string]any{},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var body struct {
		ID string `json:"id"`
	}
	s.decode(resp, &body)
	return body.ID
}

func (s *HandlerSuite) postEvent(shipmentID, eventType string) *http.Response {
	return s.do(http.MethodPost, "/shipments/"+shipmentID+"/events", s.token(operator),
		map[string]any{"type": eventType})
}

func (s *HandlerSuite) TestHealth() {
	resp := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestAuth() {
	s.Run("mutations require a token", func() {
		resp := s.do(http.MethodPost, "/shipments", "", map[string]any{})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("garbage token is rejected", func() {
		resp := s.do(http.MethodPost, "/shipments", "not-a-token", map[string]any{})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func (s *HandlerSuite) TestShipments() {
	s.Run("create returns the staged shipment", func() {
		resp := s.do(http.MethodPost, "/shipments", s.token(operator), map[string]any{
			"order_id":     orderID.String(),
			"destination":  map[string]any{"region": "eu-west"},
			"requirements": map[string]any{},
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		var body map[string]any
		s.decode(resp, &body)
		s.Equal("created", body["status"])
		s.Equal(orderID.String(), body["order_id"])
		s.NotEmpty(body["id"])
		s.NotEmpty(body["seal"])
	})

	s.Run("create for an unknown order is 404", func() {
		resp := s.do(http.MethodPost, "/shipments", s.token(operator), map[string]any{
			"order_id":    "ord-ghost",
			"destination": map[string]any{"region": "eu-west"},
		})
		s.Equal(http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("malformed body is 400", func() {
		resp := s.do(http.MethodPost, "/shipments", s.token(operator), map[string]any{
			"order_id": orderID.String(),
			"surprise": true,
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("carrier events advance status", func() {
		shipmentID := s.createShipment()

		resp := s.postEvent(shipmentID, "picked_up")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var body map[string]any
		s.decode(resp, &body)
		s.Equal("in_transit", body["status"])
	})

	s.Run("non-operator event is 401", func() {
		shipmentID := s.createShipment()

		resp := s.do(http.MethodPost, "/shipments/"+shipmentID+"/events",
			s.token(id.AccountID("acct-intruder")), map[string]any{"type": "picked_up"})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("unknown shipment read is 404", func() {
		resp := s.do(http.MethodGet, "/shipments/shp-ghost", "", nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func (s *HandlerSuite) TestVerificationAndEscrow() {
	shipmentID := s.createShipment()
	s.postEvent(shipmentID, "picked_up").Body.Close()
	s.postEvent(shipmentID, "delivered").Body.Close()

	s.Run("verification before delivery is rejected", func() {
		other := s.createShipment()
		resp := s.do(http.MethodPost, "/shipments/"+other+"/verification",
			s.token(verifierID), map[string]any{"proof": []byte("pod"), "quality_score": 90})
		s.Equal(http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("verified delivery releases the escrow", func() {
		s.mockTransfer.EXPECT().
			Transfer(gomock.Any(), id.ShipmentID(shipmentID), id.AccountID("acct-payee"), int64(30_000)).
			Return(nil)

		resp := s.do(http.MethodPost, "/shipments/"+shipmentID+"/verification",
			s.token(verifierID), map[string]any{"proof": []byte("pod"), "quality_score": 90, "summary": "intact"})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		var ver map[string]any
		s.decode(resp, &ver)
		s.NotEmpty(ver["signature"])
		s.Equal(verifierID.String(), ver["verifier"])

		resp = s.do(http.MethodGet, "/shipments/"+shipmentID+"/escrow", "", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var esc map[string]any
		s.decode(resp, &esc)
		s.Equal("released", esc["status"])
	})

	s.Run("second verification is 409", func() {
		resp := s.do(http.MethodPost, "/shipments/"+shipmentID+"/verification",
			s.token(verifierID), map[string]any{"proof": []byte("pod"), "quality_score": 90})
		s.Equal(http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("audit trail lists the lifecycle", func() {
		resp := s.do(http.MethodGet, "/shipments/"+shipmentID+"/audit", "", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var events []map[string]any
		s.decode(resp, &events)
		s.NotEmpty(events)
	})
}

func (s *HandlerSuite) TestProducts() {
	register := func(productID string) {
		resp := s.do(http.MethodPost, "/products/"+productID, s.token(verifierID), map[string]any{
			"manufacturer_proof": []byte("proof"),
			"content":            []byte("batch 7"),
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	s.Run("authenticate matches registered content", func() {
		register("prd-1")

		resp := s.do(http.MethodPost, "/products/prd-1/authentication", s.token(verifierID),
			map[string]any{"content": []byte("batch 7")})
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var body map[string]any
		s.decode(resp, &body)
		s.Equal(true, body["authentic"])
	})

	s.Run("authenticate rejects tampered content", func() {
		register("prd-2")

		resp := s.do(http.MethodPost, "/products/prd-2/authentication", s.token(verifierID),
			map[string]any{"content": []byte("counterfeit")})
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var body map[string]any
		s.decode(resp, &body)
		s.Equal(false, body["authentic"])
	})

	s.Run("unknown product is 404", func() {
		resp := s.do(http.MethodPost, "/products/prd-ghost/authentication", s.token(verifierID),
			map[string]any{"content": []byte("x")})
		s.Equal(http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	s.Run("history records every attempt", func() {
		register("prd-3")
		s.do(http.MethodPost, "/products/prd-3/authentication", s.token(verifierID),
			map[string]any{"content": []byte("batch 7")}).Body.Close()
		s.do(http.MethodPost, "/products/prd-3/authentication", s.token(verifierID),
			map[string]any{"content": []byte("fake")}).Body.Close()

		resp := s.do(http.MethodGet, "/products/prd-3/history", "", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var history []map[string]any
		s.decode(resp, &history)
		s.Require().Len(history, 2)
		s.Equal(true, history[0]["authentic"])
		s.Equal(false, history[1]["authentic"])
	})
}
