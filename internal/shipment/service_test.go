package shipment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	escrowmocks "freightledger/internal/escrow/mocks"
	"freightledger/internal/provenance"
	"freightledger/internal/registry"
	"freightledger/internal/shipment"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
	"freightledger/pkg/txcontext"
)

const (
	orderID   = id.OrderID("ord-1")
	carrierID = id.CarrierID("carrier-1")
	operator  = id.AccountID("acct-carrier")
)

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockTransfer  *escrowmocks.MockTokenTransfer
	store         *shipment.InMemoryStore
	escrowStore   *escrow.InMemoryStore
	registryStore *registry.InMemoryStore
	service       *shipment.Service
	engine        *escrow.Engine
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
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
		DispatchHours: 10,
		Status:        catalog.WarehouseActive,
	}))
	s.Require().NoError(carriers.Put(ctx, catalog.CarrierInfo{
		ID:         carrierID,
		Coverage:   []catalog.Region{"eu-west"},
		CostRating: 3,
		Active:     true,
	}))
	s.Require().NoError(orders.Put(ctx, catalog.FulfillmentOrder{
		ID:         orderID,
		Products:   []catalog.ProductQuantity{{ProductID: id.ProductID("prd-1"), Quantity: 100}},
		Status:     catalog.OrderOpen,
		ValueCents: 50_000,
		Payee:      id.AccountID("acct-payee"),
	}))

	s.registryStore = registry.NewInMemoryStore()
	s.Require().NoError(s.registryStore.SetCarrierOperator(ctx, carrierID, operator))
	authorizer, err := registry.New(s.registryStore, carriers)
	s.Require().NoError(err)

	sealPub, _, err := provenance.SealScheme.GenerateKeyPair()
	s.Require().NoError(err)
	sealer, err := provenance.NewSealer(sealPub)
	s.Require().NoError(err)

	s.escrowStore = escrow.NewInMemoryStore()
	s.engine, err = escrow.New(s.escrowStore, s.mockTransfer)
	s.Require().NoError(err)

	s.store = shipment.NewInMemoryStore()
	s.service, err = shipment.New(s.store, orders, catalog.NewSelector(warehouses, carriers),
		authorizer, sealer, s.engine)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) destination() catalog.Address {
	return catalog.Address{
		Name:   "Receiver BV",
		City:   "Amsterdam",
		Region: catalog.Region("eu-west"),
	}
}

func (s *ServiceSuite) create() shipment.Shipment {
	shp, err := s.service.CreateShipment(context.Background(), orderID, s.destination(), catalog.Requirements{})
	s.Require().NoError(err)
	return shp
}

func (s *ServiceSuite) carrierCtx() context.Context {
	return txcontext.WithCaller(context.Background(), operator)
}

// =============================================================================
// CreateShipment
// =============================================================================

func (s *ServiceSuite) TestCreateShipment() {
	s.Run("creates shipment and paired escrow", func() {
		shp := s.create()

		s.Equal(shipment.StatusCreated, shp.Status)
		s.Equal(orderID, shp.OrderID)
		s.Equal(id.WarehouseID("wh-1"), shp.Warehouse)
		s.Equal(carrierID, shp.Carrier)
		s.NotEmpty(shp.Seal.Ciphertext)

		esc, err := s.engine.Get(context.Background(), shp.ID)
		s.Require().NoError(err)
		s.Equal(escrow.StatusPending, esc.Status)
		s.Equal(int64(50_000), esc.AmountCents)
	})

	s.Run("shipment ids are unique per order", func() {
		first := s.create()
		second := s.create()
		s.NotEqual(first.ID, second.ID)
	})

	s.Run("unknown order creates nothing", func() {
		_, err := s.service.CreateShipment(context.Background(), id.OrderID("ord-ghost"), s.destination(), catalog.Requirements{})
		s.ErrorIs(err, shipment.ErrOrderNotFound)

		shipments, err := s.service.ListByOrder(context.Background(), id.OrderID("ord-ghost"))
		s.Require().NoError(err)
		s.Empty(shipments)
	})

	s.Run("unmatchable requirements create nothing", func() {
		_, err := s.service.CreateShipment(context.Background(), orderID, s.destination(), catalog.Requirements{
			Certifications: []catalog.Certification{"cold-chain"},
		})
		s.ErrorIs(err, catalog.ErrNoEligibleWarehouse)
	})

	s.Run("uncovered destination creates nothing", func() {
		_, err := s.service.CreateShipment(context.Background(), orderID, catalog.Address{
			Region: catalog.Region("apac-east"),
		}, catalog.Requirements{})
		s.ErrorIs(err, catalog.ErrNoEligibleCarrier)
	})
}

// =============================================================================
// UpdateShipmentStatus
// =============================================================================

func (s *ServiceSuite) TestUpdateShipmentStatus() {
	s.Run("unknown shipment", func() {
		_, err := s.service.UpdateShipmentStatus(s.carrierCtx(), id.ShipmentID("shp-ghost"),
			shipment.TrackingEvent{Type: shipment.EventPickedUp})
		s.ErrorIs(err, shipment.ErrShipmentNotFound)
	})

	s.Run("invalid event type is rejected", func() {
		shp := s.create()
		_, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventType("teleported")})
		s.ErrorIs(err, shipment.ErrInvalidEvent)
	})

	s.Run("unauthorized caller leaves the record unchanged", func() {
		shp := s.create()
		intruder := txcontext.WithCaller(context.Background(), id.AccountID("acct-intruder"))

		_, err := s.service.UpdateShipmentStatus(intruder, shp.ID,
			shipment.TrackingEvent{Type: shipment.EventPickedUp})
		s.ErrorIs(err, registry.ErrUnauthorized)

		got, err := s.service.GetShipment(context.Background(), shp.ID)
		s.Require().NoError(err)
		s.Equal(shipment.StatusCreated, got.Status)
		s.Empty(got.Events)
	})

	s.Run("anonymous caller is unauthorized", func() {
		shp := s.create()
		_, err := s.service.UpdateShipmentStatus(context.Background(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventPickedUp})
		s.ErrorIs(err, registry.ErrUnauthorized)
	})

	s.Run("picked up moves the shipment in transit", func() {
		shp := s.create()
		got, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventPickedUp, Location: "wh-1 dock 4"})
		s.Require().NoError(err)
		s.Equal(shipment.StatusInTransit, got.Status)
		s.Require().Len(got.Events, 1)
		s.Equal(operator, got.Events[0].RecordedBy)
		s.False(got.Events[0].Timestamp.IsZero())
	})

	s.Run("in transit and exception events append without a status change", func() {
		shp := s.create()
		_, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventPickedUp})
		s.Require().NoError(err)

		got, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventException, Note: "customs hold"})
		s.Require().NoError(err)
		s.Equal(shipment.StatusInTransit, got.Status)

		got, err = s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventInTransit, Location: "antwerp hub"})
		s.Require().NoError(err)
		s.Equal(shipment.StatusInTransit, got.Status)
		s.Len(got.Events, 3)
	})

	s.Run("delivery marks escrow conditions met", func() {
		shp := s.create()
		_, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventDelivered})
		s.Require().NoError(err)

		esc, err := s.engine.Get(context.Background(), shp.ID)
		s.Require().NoError(err)
		s.Equal(escrow.StatusConditionsMet, esc.Status)
	})

	s.Run("status never regresses", func() {
		shp := s.create()
		_, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventDelivered})
		s.Require().NoError(err)

		got, err := s.service.UpdateShipmentStatus(s.carrierCtx(), shp.ID,
			shipment.TrackingEvent{Type: shipment.EventPickedUp})
		s.Require().NoError(err)
		s.Equal(shipment.StatusDelivered, got.Status)
		s.Len(got.Events, 2)
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *ServiceSuite) TestReads() {
	s.Run("get unknown shipment", func() {
		_, err := s.service.GetShipment(context.Background(), id.ShipmentID("shp-ghost"))
		s.ErrorIs(err, shipment.ErrShipmentNotFound)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list by order returns every shipment", func() {
		first := s.create()
		second := s.create()

		shipments, err := s.service.ListByOrder(context.Background(), orderID)
		s.Require().NoError(err)
		s.Len(shipments, 2)
		s.ElementsMatch([]id.ShipmentID{first.ID, second.ID},
			[]id.ShipmentID{shipments[0].ID, shipments[1].ID})
	})
}
