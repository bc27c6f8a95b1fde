package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/charging/store"
	"github.com/batiflow/cost-engine/transport"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	mem       *store.Memory
	allocator *transport.Allocator
}

func newFixture() *fixture {
	mem := store.NewMemory()
	return &fixture{
		mem:       mem,
		allocator: transport.NewAllocator(mem, mem, mem),
	}
}

func (f *fixture) addWorker(t *testing.T, name string, vehicle bool) charging.WorkerID {
	t.Helper()
	w, err := f.mem.CreateWorker(context.Background(), &charging.Worker{
		Name:       name,
		HourlyRate: decimal.NewFromInt(20),
		HasVehicle: vehicle,
	})
	if err != nil {
		t.Fatalf("create worker: %v", err)
	}
	return w.ID
}

func (f *fixture) addSite(t *testing.T, name string) charging.SiteID {
	t.Helper()
	s, err := f.mem.CreateJobSite(context.Background(), &charging.JobSite{
		Name:   name,
		Status: charging.SiteActive,
	})
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	return s.ID
}

// deploy records a personnel charge putting worker on site with one billable
// day on the given date.
func (f *fixture) deploy(t *testing.T, site charging.SiteID, worker charging.WorkerID, day string) {
	t.Helper()
	start, end := 8.0, 15.0
	_, err := f.mem.CreateCharge(context.Background(), &charging.Charge{
		SiteID:   site,
		Category: charging.CategoryPersonnel,
		Name:     "crew",
		Personnel: []charging.PersonnelAssignment{{
			WorkerID:   worker,
			HourlyRate: decimal.NewFromInt(20),
			Days: []charging.WorkDay{{
				Date:      day,
				StartHour: &start,
				EndHour:   &end,
				Billable:  true,
			}},
		}},
	})
	if err != nil {
		t.Fatalf("create personnel charge: %v", err)
	}
}

func (f *fixture) siteFees(t *testing.T, site charging.SiteID, day string) []charging.Charge {
	t.Helper()
	charges, err := f.mem.ListCharges(context.Background(), site)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	var fees []charging.Charge
	for _, c := range charges {
		if c.FeeDate == day {
			fees = append(fees, c)
		}
	}
	return fees
}

// =============================================================================
// ALLOCATION
// =============================================================================

func TestApply_SingleWorkerSingleSite(t *testing.T) {
	// GIVEN: one vehicle-equipped worker deployed on one site on the date
	f := newFixture()
	worker := f.addWorker(t, "A. Martin", true)
	site := f.addSite(t, "rue des Lilas")
	f.deploy(t, site, worker, "2025-03-03")

	// WHEN: fees are applied with an explicit amount of 90
	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// THEN: one fee charge for the full amount
	if result.Created != 1 || result.Skipped != 0 || len(result.Failures) != 0 {
		t.Errorf("result = %+v, want 1 created", result)
	}
	fees := f.siteFees(t, site, "2025-03-03")
	if len(fees) != 1 {
		t.Fatalf("got %d fee charges, want 1", len(fees))
	}
	fee := fees[0]
	if !fee.Amount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("fee amount = %s, want 90", fee.Amount)
	}
	if fee.Category != charging.CategoryFixedCost || fee.Name != transport.FeeChargeName {
		t.Errorf("fee category/name = %s/%s", fee.Category, fee.Name)
	}
}

func TestApply_Reinvocation_Idempotent(t *testing.T) {
	// GIVEN: a run that already credited the site
	f := newFixture()
	worker := f.addWorker(t, "A. Martin", true)
	site := f.addSite(t, "rue des Lilas")
	f.deploy(t, site, worker, "2025-03-03")
	if _, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// WHEN: the same date is applied again
	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	// THEN: the site is skipped, no second charge appears
	if result.Created != 0 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 0 created / 1 skipped", result)
	}
	if fees := f.siteFees(t, site, "2025-03-03"); len(fees) != 1 {
		t.Errorf("got %d fee charges after re-run, want 1", len(fees))
	}
}

func TestApply_EvenSplitAcrossWorkerSites(t *testing.T) {
	// GIVEN: one worker billably deployed on two sites the same day
	f := newFixture()
	worker := f.addWorker(t, "A. Martin", true)
	siteA := f.addSite(t, "site A")
	siteB := f.addSite(t, "site B")
	f.deploy(t, siteA, worker, "2025-03-03")
	f.deploy(t, siteB, worker, "2025-03-03")

	// WHEN: 90 is allocated
	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// THEN: each site gets 45
	if result.Created != 2 {
		t.Fatalf("created = %d, want 2", result.Created)
	}
	for _, site := range []charging.SiteID{siteA, siteB} {
		fees := f.siteFees(t, site, "2025-03-03")
		if len(fees) != 1 || !fees[0].Amount.Equal(decimal.NewFromInt(45)) {
			t.Errorf("site %d: fees = %+v, want one fee of 45", site, fees)
		}
	}
}

func TestApply_TwoWorkersSameSite_FirstShareWins(t *testing.T) {
	// GIVEN: worker 1 split across two sites, worker 2 only on the shared site
	f := newFixture()
	first := f.addWorker(t, "A. Martin", true)
	second := f.addWorker(t, "B. Dupont", true)
	shared := f.addSite(t, "shared")
	other := f.addSite(t, "other")
	f.deploy(t, shared, first, "2025-03-03")
	f.deploy(t, other, first, "2025-03-03")
	f.deploy(t, shared, second, "2025-03-03")

	// WHEN: 90 is allocated
	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// THEN: the shared site carries worker 1's half, not worker 2's full 90
	if result.Created != 2 {
		t.Fatalf("created = %d, want 2", result.Created)
	}
	fees := f.siteFees(t, shared, "2025-03-03")
	if len(fees) != 1 {
		t.Fatalf("shared site: got %d fees, want 1", len(fees))
	}
	if !fees[0].Amount.Equal(decimal.NewFromInt(45)) {
		t.Errorf("shared site fee = %s, want 45 (first share wins)", fees[0].Amount)
	}
}

func TestApply_SkipsNonBillableAndOtherDates(t *testing.T) {
	f := newFixture()
	worker := f.addWorker(t, "A. Martin", true)
	site := f.addSite(t, "rue des Lilas")

	// A non-billable day on the date and a billable day on another date.
	start, end := 8.0, 15.0
	_, err := f.mem.CreateCharge(context.Background(), &charging.Charge{
		SiteID:   site,
		Category: charging.CategoryPersonnel,
		Name:     "crew",
		Personnel: []charging.PersonnelAssignment{{
			WorkerID:   worker,
			HourlyRate: decimal.NewFromInt(20),
			Days: []charging.WorkDay{
				{Date: "2025-03-03", StartHour: &start, EndHour: &end, Billable: false},
				{Date: "2025-03-04", StartHour: &start, EndHour: &end, Billable: true},
			},
		}},
	})
	if err != nil {
		t.Fatalf("create charge: %v", err)
	}

	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if result.Created != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want nothing created", result)
	}
}

func TestApply_NonVehicleWorkersIgnored(t *testing.T) {
	f := newFixture()
	worker := f.addWorker(t, "C. Benoit", false)
	site := f.addSite(t, "rue des Lilas")
	f.deploy(t, site, worker, "2025-03-03")

	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if result.Created != 0 {
		t.Errorf("created = %d, want 0 for a cohort without vehicles", result.Created)
	}
}

// =============================================================================
// AMOUNT AND COHORT RESOLUTION
// =============================================================================

func TestApply_AmountFromConfig(t *testing.T) {
	// GIVEN: no explicit amount, config components summing to 84.50
	f := newFixture()
	err := f.mem.PutTransportConfig(context.Background(), &charging.TransportConfig{
		Truck:     decimal.NewFromInt(50),
		Insurance: decimal.NewFromInt(20),
		Fuel:      decimal.NewFromFloat(12.5),
		Custom: []charging.CostComponent{
			{Label: "toll", Amount: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("put config: %v", err)
	}
	worker := f.addWorker(t, "A. Martin", true)
	site := f.addSite(t, "rue des Lilas")
	f.deploy(t, site, worker, "2025-03-03")

	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.Zero, 0)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !result.Amount.Equal(decimal.NewFromFloat(84.5)) {
		t.Errorf("amount = %s, want 84.5 from config", result.Amount)
	}
	fees := f.siteFees(t, site, "2025-03-03")
	if len(fees) != 1 || !fees[0].Amount.Equal(decimal.NewFromFloat(84.5)) {
		t.Errorf("fees = %+v, want one fee of 84.5", fees)
	}
}

func TestApply_NoPositiveAmount(t *testing.T) {
	f := newFixture()
	f.addWorker(t, "A. Martin", true)

	_, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.Zero, 0)

	if !errors.Is(err, charging.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApply_InvalidDate(t *testing.T) {
	f := newFixture()

	_, err := f.allocator.Apply(context.Background(), "03/03/2025", decimal.NewFromInt(90), 0)

	if !errors.Is(err, charging.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApply_OnlyWorkerRestrictsCohort(t *testing.T) {
	// GIVEN: two vehicle-equipped workers on two different sites
	f := newFixture()
	first := f.addWorker(t, "A. Martin", true)
	second := f.addWorker(t, "B. Dupont", true)
	siteA := f.addSite(t, "site A")
	siteB := f.addSite(t, "site B")
	f.deploy(t, siteA, first, "2025-03-03")
	f.deploy(t, siteB, second, "2025-03-03")

	// WHEN: the run is restricted to the first worker
	result, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), first)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// THEN: only the first worker's site is credited
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}
	if len(f.siteFees(t, siteB, "2025-03-03")) != 0 {
		t.Error("second worker's site must not be credited")
	}
}

func TestApply_OnlyWorkerWithoutVehicle(t *testing.T) {
	f := newFixture()
	worker := f.addWorker(t, "C. Benoit", false)

	_, err := f.allocator.Apply(context.Background(), "2025-03-03", decimal.NewFromInt(90), worker)

	if !errors.Is(err, charging.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
