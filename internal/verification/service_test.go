package verification_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	escrowmocks "freightledger/internal/escrow/mocks"
	"freightledger/internal/provenance"
	"freightledger/internal/registry"
	"freightledger/internal/shipment"
	"freightledger/internal/verification"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/txcontext"
)

const (
	orderID    = id.OrderID("ord-1")
	carrierID  = id.CarrierID("carrier-1")
	operator   = id.AccountID("acct-carrier")
	verifierID = id.AccountID("acct-verifier")
	payee      = id.AccountID("acct-payee")
)

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockTransfer  *escrowmocks.MockTokenTransfer
	shipmentStore *shipment.InMemoryStore
	escrowStore   *escrow.InMemoryStore
	engine        *escrow.Engine
	shipments     *shipment.Service
	service       *verification.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.setup(catalog.Requirements{})
}

func (s *ServiceSuite) setup(req catalog.Requirements) {
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
		ID:           orderID,
		Status:       catalog.OrderOpen,
		ValueCents:   80_000,
		Payee:        payee,
		Requirements: req,
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

	s.escrowStore = escrow.NewInMemoryStore()
	s.engine, err = escrow.New(s.escrowStore, s.mockTransfer)
	s.Require().NoError(err)

	s.shipmentStore = shipment.NewInMemoryStore()
	s.shipments, err = shipment.New(s.shipmentStore, orders, catalog.NewSelector(warehouses, carriers),
		reg, sealer, s.engine)
	s.Require().NoError(err)

	verStore := verification.NewInMemoryStore()
	s.service, err = verification.New(verStore, s.shipmentStore, keyring, reg, s.engine)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) carrierCtx() context.Context {
	return txcontext.WithCaller(context.Background(), operator)
}

func (s *ServiceSuite) verifierCtx() context.Context {
	return txcontext.WithCaller(context.Background(), verifierID)
}

func (s *ServiceSuite) createShipment() shipment.Shipment {
	shp, err := s.shipments.CreateShipment(context.Background(), orderID,
		catalog.Address{Region: catalog.Region("eu-west")}, catalog.Requirements{})
	s.Require().NoError(err)
	return shp
}

func (s *ServiceSuite) applyEvent(shipmentID id.ShipmentID, t shipment.EventType) shipment.Shipment {
	shp, err := s.shipments.UpdateShipmentStatus(s.carrierCtx(), shipmentID, shipment.TrackingEvent{Type: t})
	s.Require().NoError(err)
	return shp
}

func (s *ServiceSuite) deliveredShipment() shipment.Shipment {
	shp := s.createShipment()
	s.applyEvent(shp.ID, shipment.EventPickedUp)
	return s.applyEvent(shp.ID, shipment.EventDelivered)
}

// =============================================================================
// Full lifecycle
// =============================================================================

// TestFullLifecycle drives one shipment from creation to released escrow.
func (s *ServiceSuite) TestFullLifecycle() {
	ctx := context.Background()

	shp := s.createShipment()
	s.Equal(shipment.StatusCreated, shp.Status)
	esc, err := s.engine.Get(ctx, shp.ID)
	s.Require().NoError(err)
	s.Equal(escrow.StatusPending, esc.Status)

	shp = s.applyEvent(shp.ID, shipment.EventPickedUp)
	s.Equal(shipment.StatusInTransit, shp.Status)
	esc, err = s.engine.Get(ctx, shp.ID)
	s.Require().NoError(err)
	s.Equal(escrow.StatusPending, esc.Status)

	shp = s.applyEvent(shp.ID, shipment.EventDelivered)
	s.Equal(shipment.StatusDelivered, shp.Status)
	esc, err = s.engine.Get(ctx, shp.ID)
	s.Require().NoError(err)
	s.Equal(escrow.StatusConditionsMet, esc.Status)

	s.mockTransfer.EXPECT().
		Transfer(gomock.Any(), shp.ID, payee, int64(80_000)).
		Return(nil)

	ver, err := s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
		[]byte("pod-scan"), verification.Report{QualityScore: 95, Summary: "intact"})
	s.Require().NoError(err)
	s.NotEmpty(ver.Signature)

	got, err := s.shipments.GetShipment(ctx, shp.ID)
	s.Require().NoError(err)
	s.Equal(shipment.StatusVerified, got.Status)

	esc, err = s.engine.Get(ctx, shp.ID)
	s.Require().NoError(err)
	s.Equal(escrow.StatusReleased, esc.Status)

	_, err = s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
		[]byte("pod-scan"), verification.Report{QualityScore: 95})
	s.ErrorIs(err, verification.ErrAlreadyVerified)
}

// =============================================================================
// VerifyDelivery
// =============================================================================

func (s *ServiceSuite) TestVerifyDelivery() {
	s.Run("unknown shipment", func() {
		_, err := s.service.VerifyDelivery(s.verifierCtx(), id.ShipmentID("shp-ghost"),
			[]byte("pod"), verification.Report{})
		s.ErrorIs(err, shipment.ErrShipmentNotFound)
	})

	s.Run("undelivered shipment is rejected", func() {
		shp := s.createShipment()
		_, err := s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
			[]byte("pod"), verification.Report{})
		s.ErrorIs(err, verification.ErrNotDelivered)

		shp = s.applyEvent(shp.ID, shipment.EventPickedUp)
		_, err = s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
			[]byte("pod"), verification.Report{})
		s.ErrorIs(err, verification.ErrNotDelivered)
	})

	s.Run("caller without a signing key is rejected", func() {
		shp := s.deliveredShipment()
		stranger := txcontext.WithCaller(context.Background(), id.AccountID("acct-stranger"))

		_, err := s.service.VerifyDelivery(stranger, shp.ID, []byte("pod"), verification.Report{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = s.service.Get(context.Background(), shp.ID)
		s.ErrorIs(err, verification.ErrNoVerification)
	})

	s.Run("release shortfall does not undo the verification", func() {
		s.setup(catalog.Requirements{QualityThreshold: 90})
		shp := s.deliveredShipment()

		ver, err := s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
			[]byte("pod"), verification.Report{QualityScore: 40, Summary: "water damage"})
		s.Require().NoError(err)
		s.NotEmpty(ver.Signature)

		got, err := s.shipments.GetShipment(context.Background(), shp.ID)
		s.Require().NoError(err)
		s.Equal(shipment.StatusVerified, got.Status)

		esc, err := s.engine.Get(context.Background(), shp.ID)
		s.Require().NoError(err)
		s.Equal(escrow.StatusConditionsMet, esc.Status)
	})
}

// =============================================================================
// Signature verification
// =============================================================================

func (s *ServiceSuite) TestVerify() {
	s.Run("stored record verifies against the registered key", func() {
		shp := s.deliveredShipment()
		s.mockTransfer.EXPECT().
			Transfer(gomock.Any(), shp.ID, gomock.Any(), gomock.Any()).
			Return(nil)

		ver, err := s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
			[]byte("pod-scan"), verification.Report{QualityScore: 88, Summary: "minor scuffing"})
		s.Require().NoError(err)

		s.NoError(s.service.Verify(context.Background(), ver))
	})

	s.Run("tampered report fails verification", func() {
		shp := s.deliveredShipment()
		s.mockTransfer.EXPECT().
			Transfer(gomock.Any(), shp.ID, gomock.Any(), gomock.Any()).
			Return(nil)

		ver, err := s.service.VerifyDelivery(s.verifierCtx(), shp.ID,
			[]byte("pod-scan"), verification.Report{QualityScore: 88})
		s.Require().NoError(err)

		ver.Report.QualityScore = 100
		s.ErrorIs(s.service.Verify(context.Background(), ver), verification.ErrBadSignature)
	})

	s.Run("unknown verifier fails verification", func() {
		ver := verification.DeliveryVerification{
			ShipmentID: id.ShipmentID("shp-1"),
			Verifier:   id.AccountID("acct-ghost"),
		}
		s.ErrorIs(s.service.Verify(context.Background(), ver), registry.ErrNotVerifier)
	})
}
