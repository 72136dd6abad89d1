package catalog

import (
	"context"
	"time"

	id "freightledger/pkg/domain"
)

// LoadDevSeed fills the catalogs with a small demo data set so a standalone
// node is usable without an upstream order system.
func LoadDevSeed(ctx context.Context, warehouses WarehouseStore, carriers CarrierStore, orders OrderStore) error {
	seedWarehouses := []WarehouseInfo{
		{
			ID:             id.WarehouseID("wh-hamburg-1"),
			Location:       "Hamburg",
			Region:         Region("eu-north"),
			CapacityUnits:  50_000,
			Certifications: []Certification{"gdp", "cold-chain"},
			DispatchHours:  12,
			Status:         WarehouseActive,
		},
		{
			ID:            id.WarehouseID("wh-lyon-1"),
			Location:      "Lyon",
			Region:        Region("eu-west"),
			CapacityUnits: 20_000,
			DispatchHours: 8,
			Status:        WarehouseActive,
		},
	}
	for _, w := range seedWarehouses {
		if err := warehouses.Put(ctx, w); err != nil {
			return err
		}
	}

	seedCarriers := []CarrierInfo{
		{
			ID:           id.CarrierID("carrier-nordfreight"),
			ServiceLevel: ServiceStandard,
			Coverage:     []Region{"eu-north", "eu-west"},
			CostRating:   2,
			Active:       true,
		},
		{
			ID:           id.CarrierID("carrier-alpexpress"),
			ServiceLevel: ServiceExpress,
			Coverage:     []Region{"eu-west"},
			CostRating:   5,
			Active:       true,
		},
	}
	for _, c := range seedCarriers {
		if err := carriers.Put(ctx, c); err != nil {
			return err
		}
	}

	return orders.Put(ctx, FulfillmentOrder{
		ID: id.OrderID("ord-demo-1"),
		Products: []ProductQuantity{
			{ProductID: id.ProductID("prod-demo-1"), Quantity: 120},
		},
		Requirements: Requirements{ServiceLevel: ServiceStandard},
		Status:       OrderOpen,
		CreatedAt:    time.Now().UTC(),
		ValueCents:   250_000,
		Payee:        id.AccountID("acct-supplier-demo"),
	})
}
