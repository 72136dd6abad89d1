package catalog

import (
	"context"
	"sort"
	"strings"

	dErrors "freightledger/pkg/domain-errors"
)

// Selection errors. Services surface them verbatim; no shipment is created
// when no eligible candidate exists.
var (
	ErrNoEligibleWarehouse = dErrors.New(dErrors.CodeFailedPrecondition, "no eligible warehouse for requirements")
	ErrNoEligibleCarrier   = dErrors.New(dErrors.CodeFailedPrecondition, "no eligible carrier for destination")
)

// Selector picks warehouses and carriers for a shipment. Selection is
// deterministic given catalog contents: candidates are filtered on hard
// requirements, ranked by the cheapest/fastest policy, and ties break on id
// order (first match wins).
type Selector struct {
	warehouses WarehouseStore
	carriers   CarrierStore
}

func NewSelector(warehouses WarehouseStore, carriers CarrierStore) *Selector {
	return &Selector{warehouses: warehouses, carriers: carriers}
}

// SelectWarehouse picks the dispatch site for an order. The order's preferred
// warehouse wins when it meets the requirements; otherwise the fastest
// eligible site is chosen.
func (s *Selector) SelectWarehouse(ctx context.Context, order FulfillmentOrder, req Requirements) (WarehouseInfo, error) {
	req = normalizeRequirements(req)
	needed := order.TotalUnits()
	if req.MinCapacityUnits > needed {
		needed = req.MinCapacityUnits
	}

	all, err := s.warehouses.List(ctx)
	if err != nil {
		return WarehouseInfo{}, dErrors.Wrap(err, dErrors.CodeInternal, "list warehouses")
	}

	var candidates []WarehouseInfo
	for _, w := range all {
		if warehouseEligible(w, needed, req.Certifications) {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return WarehouseInfo{}, ErrNoEligibleWarehouse
	}

	if !order.Warehouse.IsZero() {
		for _, w := range candidates {
			if w.ID == order.Warehouse {
				return w, nil
			}
		}
	}

	// Lowest dispatch latency first; List already yields id order, and
	// SliceStable keeps it for ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DispatchHours < candidates[j].DispatchHours
	})
	return candidates[0], nil
}

// SelectCarrier picks the carrier for a dispatch site and destination.
func (s *Selector) SelectCarrier(ctx context.Context, _ WarehouseInfo, destination Address, req Requirements) (CarrierInfo, error) {
	req = normalizeRequirements(req)

	all, err := s.carriers.List(ctx)
	if err != nil {
		return CarrierInfo{}, dErrors.Wrap(err, dErrors.CodeInternal, "list carriers")
	}

	var candidates []CarrierInfo
	for _, c := range all {
		if carrierEligible(c, destination.Region, req.ServiceLevel) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return CarrierInfo{}, ErrNoEligibleCarrier
	}

	// Cheapest first, id order on ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CostRating < candidates[j].CostRating
	})
	return candidates[0], nil
}

func warehouseEligible(w WarehouseInfo, neededUnits int64, certs []Certification) bool {
	if w.Status != WarehouseActive {
		return false
	}
	if w.CapacityUnits < neededUnits {
		return false
	}
	for _, cert := range certs {
		if !w.holds(cert) {
			return false
		}
	}
	return true
}

func carrierEligible(c CarrierInfo, region Region, level ServiceLevel) bool {
	if !c.Active {
		return false
	}
	if !c.covers(region) {
		return false
	}
	if level != "" && c.ServiceLevel != level {
		return false
	}
	return true
}

// normalizeRequirements trims and dedupes the certification list so repeated
// entries from upstream never change eligibility.
func normalizeRequirements(req Requirements) Requirements {
	if len(req.Certifications) == 0 {
		return req
	}
	seen := make(map[Certification]struct{}, len(req.Certifications))
	out := req.Certifications[:0:0]
	for _, cert := range req.Certifications {
		c := Certification(strings.TrimSpace(string(cert)))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	req.Certifications = out
	return req
}
