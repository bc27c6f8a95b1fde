package overhead_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/charging/store"
	"github.com/batiflow/cost-engine/overhead"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	mem         *store.Memory
	distributor *overhead.Distributor
}

func newFixture() *fixture {
	mem := store.NewMemory()
	return &fixture{
		mem:         mem,
		distributor: overhead.NewDistributor(mem, mem, mem),
	}
}

func (f *fixture) addSite(t *testing.T, name string, status charging.SiteStatus) charging.SiteID {
	t.Helper()
	s, err := f.mem.CreateJobSite(context.Background(), &charging.JobSite{
		Name:   name,
		Status: status,
	})
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	return s.ID
}

// putRegistry stores a registry whose monthly total is 30x the wanted daily
// amount, so the 30-day spread lands on a round figure.
func (f *fixture) putRegistry(t *testing.T, daily int64) {
	t.Helper()
	err := f.mem.PutOverheadRegistry(context.Background(), &charging.OverheadRegistry{
		Rent: decimal.NewFromInt(daily * 30),
	})
	if err != nil {
		t.Fatalf("put registry: %v", err)
	}
}

func (f *fixture) siteCharges(t *testing.T, site charging.SiteID, day string) []charging.Charge {
	t.Helper()
	charges, err := f.mem.ListCharges(context.Background(), site)
	if err != nil {
		t.Fatalf("list charges: %v", err)
	}
	var out []charging.Charge
	for _, c := range charges {
		if c.FeeDate == day && c.FeeKind == charging.FeeOverhead {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

func TestApply_SplitsEvenlyAcrossActiveSites(t *testing.T) {
	// GIVEN: a registry worth 120/day and two active sites
	f := newFixture()
	f.putRegistry(t, 120)
	siteA := f.addSite(t, "rue des Lilas", charging.SiteActive)
	siteB := f.addSite(t, "quai Nord", charging.SiteActive)

	// WHEN: the overhead is distributed
	result, err := f.distributor.Apply(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// THEN: each active site carries a 60 fixed-cost charge for the date
	if result.Created != 2 {
		t.Fatalf("created = %d, want 2", result.Created)
	}
	if !result.DailyAmount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("daily amount = %s, want 120", result.DailyAmount)
	}
	for _, site := range []charging.SiteID{siteA, siteB} {
		charges := f.siteCharges(t, site, "2025-03-03")
		if len(charges) != 1 {
			t.Fatalf("site %d: %d overhead charges, want 1", site, len(charges))
		}
		c := charges[0]
		if !c.Amount.Equal(decimal.NewFromInt(60)) {
			t.Errorf("site %d: amount = %s, want 60", site, c.Amount)
		}
		if c.Category != charging.CategoryFixedCost {
			t.Errorf("site %d: category = %s, want fixed-cost", site, c.Category)
		}
	}
}

func TestApply_OnlyActiveSitesReceiveCharges(t *testing.T) {
	// GIVEN: one active site among provisional and closed ones
	f := newFixture()
	f.putRegistry(t, 120)
	active := f.addSite(t, "rue des Lilas", charging.SiteActive)
	provisional := f.addSite(t, "devis en cours", charging.SiteProvisional)
	closed := f.addSite(t, "chantier fini", charging.SiteClosed)

	// WHEN: the overhead is distributed
	result, err := f.distributor.Apply(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// THEN: the active site takes the full daily amount, the others nothing
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}
	charges := f.siteCharges(t, active, "2025-03-03")
	if len(charges) != 1 || !charges[0].Amount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("active site: got %v, want one 120 charge", charges)
	}
	for _, site := range []charging.SiteID{provisional, closed} {
		if got := f.siteCharges(t, site, "2025-03-03"); len(got) != 0 {
			t.Errorf("site %d: got %d overhead charges, want none", site, len(got))
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	// GIVEN: a completed distribution for the date
	f := newFixture()
	f.putRegistry(t, 120)
	site := f.addSite(t, "rue des Lilas", charging.SiteActive)

	first, err := f.distributor.Apply(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("first created = %d, want 1", first.Created)
	}

	// WHEN: the same date is distributed again
	second, err := f.distributor.Apply(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	// THEN: the site is skipped, not charged twice
	if second.Created != 0 || second.Skipped != 1 {
		t.Errorf("second run: created=%d skipped=%d, want 0/1", second.Created, second.Skipped)
	}
	if got := f.siteCharges(t, site, "2025-03-03"); len(got) != 1 {
		t.Errorf("%d overhead charges after re-run, want 1", len(got))
	}

	// AND: another date charges again
	third, err := f.distributor.Apply(context.Background(), "2025-03-04")
	if err != nil {
		t.Fatalf("third apply: %v", err)
	}
	if third.Created != 1 {
		t.Errorf("other date created = %d, want 1", third.Created)
	}
}

func TestApply_NoActiveSitesIsEmptyRun(t *testing.T) {
	// GIVEN: a configured registry but no active site
	f := newFixture()
	f.putRegistry(t, 120)
	f.addSite(t, "chantier fini", charging.SiteClosed)

	// WHEN: the overhead is distributed
	result, err := f.distributor.Apply(context.Background(), "2025-03-03")

	// THEN: nothing is created and it is not an error
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Created != 0 || result.Skipped != 0 || len(result.Failures) != 0 {
		t.Errorf("empty run: created=%d skipped=%d failed=%d, want all zero",
			result.Created, result.Skipped, len(result.Failures))
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestApply_EmptyRegistryFailsValidation(t *testing.T) {
	// GIVEN: no registered overhead amounts
	f := newFixture()
	f.addSite(t, "rue des Lilas", charging.SiteActive)

	// WHEN: the overhead is distributed
	_, err := f.distributor.Apply(context.Background(), "2025-03-03")

	// THEN: the run fails validation
	if !errors.Is(err, charging.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestApply_InvalidDateFailsValidation(t *testing.T) {
	f := newFixture()
	f.putRegistry(t, 120)

	_, err := f.distributor.Apply(context.Background(), "03/03/2025")
	if !errors.Is(err, charging.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

// =============================================================================
// COEXISTENCE
// =============================================================================

func TestApply_SharesDateWithTransportFee(t *testing.T) {
	// GIVEN: a site already carrying a transport fee for the date
	f := newFixture()
	f.putRegistry(t, 120)
	site := f.addSite(t, "rue des Lilas", charging.SiteActive)

	_, err := f.mem.CreateCharge(context.Background(), &charging.Charge{
		SiteID:   site,
		Category: charging.CategoryFixedCost,
		Name:     "Daily transport fee",
		Amount:   decimal.NewFromInt(90),
		FeeDate:  "2025-03-03",
		FeeKind:  charging.FeeTransport,
	})
	if err != nil {
		t.Fatalf("create transport fee: %v", err)
	}

	// WHEN: the overhead is distributed for the same date
	result, err := f.distributor.Apply(context.Background(), "2025-03-03")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// THEN: the overhead charge lands next to the transport fee
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}
	if got := f.siteCharges(t, site, "2025-03-03"); len(got) != 1 {
		t.Errorf("%d overhead charges, want 1", len(got))
	}
}
