package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
)

func approvedJoin(t *testing.T, store *fakeStore, userID int64, offerID uuid.UUID, at time.Time) *model.OfferJoin {
	t.Helper()
	ctx := context.Background()
	join := &model.OfferJoin{UserID: userID, OfferID: offerID, Status: model.JoinStatusPending, JoinedAt: at}
	if err := store.CreateOfferJoin(ctx, join); err != nil {
		t.Fatalf("CreateOfferJoin() error = %v", err)
	}
	if err := store.ApproveOfferJoin(ctx, join.ID, at); err != nil {
		t.Fatalf("ApproveOfferJoin() error = %v", err)
	}
	return join
}

func TestAccrualCreditDueProfit(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})
	join := approvedJoin(t, store, 1, offer.ID, t0)

	svc := NewAccrualService(store, nil)

	// 23 hours in: the window has not elapsed.
	result, err := svc.CreditDueProfit(ctx, join.ID, t0.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultNotDue {
		t.Errorf("result at +23h = %v, want not_due", result)
	}
	if len(store.profitRecords) != 0 {
		t.Errorf("profit records at +23h = %d, want 0", len(store.profitRecords))
	}

	// 25 hours in: one credit, window re-anchored at credit time.
	now := t0.Add(25 * time.Hour)
	result, err = svc.CreditDueProfit(ctx, join.ID, now)
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultCredited {
		t.Errorf("result at +25h = %v, want credited", result)
	}
	if len(store.profitRecords) != 1 {
		t.Fatalf("profit records = %d, want 1", len(store.profitRecords))
	}
	if store.profitRecords[0].Amount != 10 {
		t.Errorf("credited amount = %v, want 10", store.profitRecords[0].Amount)
	}

	got, _ := store.GetOfferJoin(ctx, join.ID)
	if got.LastProfitAt == nil || !got.LastProfitAt.Equal(now) {
		t.Errorf("last_profit_at = %v, want %v", got.LastProfitAt, now)
	}
	if u := store.mustUser(1); u.Balance != 10 {
		t.Errorf("balance = %v, want 10", u.Balance)
	}

	// Re-invoking at the same instant writes nothing.
	result, err = svc.CreditDueProfit(ctx, join.ID, now)
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultNotDue {
		t.Errorf("repeated result = %v, want not_due", result)
	}
	if len(store.profitRecords) != 1 {
		t.Errorf("profit records after repeat = %d, want 1", len(store.profitRecords))
	}
}

func TestAccrualMultipleWindows(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})
	join := approvedJoin(t, store, 1, offer.ID, t0)

	svc := NewAccrualService(store, nil)

	for day := 1; day <= 5; day++ {
		result, err := svc.CreditDueProfit(ctx, join.ID, t0.Add(time.Duration(day)*24*time.Hour))
		if err != nil {
			t.Fatalf("day %d: CreditDueProfit() error = %v", day, err)
		}
		if result != CreditResultCredited {
			t.Fatalf("day %d: result = %v, want credited", day, result)
		}
	}

	if len(store.profitRecords) != 5 {
		t.Errorf("profit records = %d, want 5", len(store.profitRecords))
	}

	// Ledger and profit history agree.
	var ledgerSum float64
	for _, tx := range store.transactionsOfType(model.TransactionTypeDailyProfit) {
		ledgerSum += tx.Amount
	}
	total, err := svc.TotalProfit(ctx, join.ID)
	if err != nil {
		t.Fatalf("TotalProfit() error = %v", err)
	}
	if total != 50 || ledgerSum != 50 {
		t.Errorf("total = %v, ledger = %v, want 50 for both", total, ledgerSum)
	}
}

func TestAccrualStops(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	store.addUser(model.User{ID: 2, ReferralCode: "user2"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})

	svc := NewAccrualService(store, nil)

	// Matured joins never accrue again even if sweeps lag behind.
	expired := approvedJoin(t, store, 1, offer.ID, t0)
	result, err := svc.CreditDueProfit(ctx, expired.ID, t0.Add(model.OfferMaturity))
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultStopped {
		t.Errorf("matured result = %v, want stopped", result)
	}

	// A withdrawn join stops immediately.
	withdrawn := approvedJoin(t, store, 2, offer.ID, t0)
	if err := store.TransitionOfferJoin(ctx, withdrawn.ID, model.JoinStatusWithdrawn, model.JoinStatusApproved); err != nil {
		t.Fatalf("TransitionOfferJoin() error = %v", err)
	}
	result, err = svc.CreditDueProfit(ctx, withdrawn.ID, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultStopped {
		t.Errorf("withdrawn result = %v, want stopped", result)
	}
	if len(store.profitRecords) != 0 {
		t.Errorf("profit records = %d, want 0", len(store.profitRecords))
	}
}

func TestAccrualStopsWhenOfferSwitchedOff(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: false})
	join := approvedJoin(t, store, 1, offer.ID, t0)

	svc := NewAccrualService(store, nil)

	result, err := svc.CreditDueProfit(ctx, join.ID, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultStopped {
		t.Errorf("result = %v, want stopped", result)
	}
}

func TestAccrualConcurrentCredit(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})
	join := approvedJoin(t, store, 1, offer.ID, t0)

	svc := NewAccrualService(store, nil)
	now := t0.Add(25 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreditDueProfit(ctx, join.ID, now); err != nil {
				t.Errorf("CreditDueProfit() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// The compare-and-swap lets exactly one racer through.
	if len(store.profitRecords) != 1 {
		t.Errorf("profit records = %d, want 1", len(store.profitRecords))
	}
	if u := store.mustUser(1); u.Balance != 10 {
		t.Errorf("balance = %v, want 10", u.Balance)
	}
}

func TestAccrualTimeToNextProfit(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})
	join := approvedJoin(t, store, 1, offer.ID, t0)

	svc := NewAccrualService(store, nil)

	cd, err := svc.TimeToNextProfit(ctx, join.ID, t0.Add(20*time.Hour))
	if err != nil {
		t.Fatalf("TimeToNextProfit() error = %v", err)
	}
	if cd.Stopped || cd.Due {
		t.Errorf("countdown = %+v, want running", cd)
	}
	if cd.Remaining != 4*time.Hour {
		t.Errorf("remaining = %v, want 4h", cd.Remaining)
	}

	cd, err = svc.TimeToNextProfit(ctx, join.ID, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("TimeToNextProfit() error = %v", err)
	}
	if !cd.Due {
		t.Errorf("countdown = %+v, want due", cd)
	}

	cd, err = svc.TimeToNextProfit(ctx, join.ID, t0.Add(model.OfferMaturity))
	if err != nil {
		t.Fatalf("TimeToNextProfit() error = %v", err)
	}
	if !cd.Stopped {
		t.Errorf("countdown = %+v, want stopped", cd)
	}
}

func TestAccrualRunSweep(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.addUser(model.User{ID: 1, ReferralCode: "user1"})
	store.addUser(model.User{ID: 2, ReferralCode: "user2"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})

	approvedJoin(t, store, 1, offer.ID, t0)                   // due at sweep time
	approvedJoin(t, store, 2, offer.ID, t0.Add(23*time.Hour)) // not yet due

	svc := NewAccrualService(store, nil)

	credited, err := svc.RunSweep(ctx, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("RunSweep() error = %v", err)
	}
	if credited != 1 {
		t.Errorf("credited = %d, want 1", credited)
	}

	// An immediate second sweep has nothing left to pay.
	credited, err = svc.RunSweep(ctx, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("second RunSweep() error = %v", err)
	}
	if credited != 0 {
		t.Errorf("second sweep credited = %d, want 0", credited)
	}
}

func TestAccrualPropagatesTeamEarnings(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := newFakeStore()
	referrer := store.addUser(model.User{ID: 1, ReferralCode: "topref"})
	store.addUser(model.User{ID: 2, ReferralCode: "member"})
	offer := store.addOffer(model.Offer{Name: "starter", DailyProfit: 10, Active: true})

	referralSvc := NewReferralService(store, 3)
	if _, err := referralSvc.ProcessReferral(ctx, 2, referrer.ReferralCode); err != nil {
		t.Fatalf("ProcessReferral() error = %v", err)
	}

	join := approvedJoin(t, store, 2, offer.ID, t0)
	svc := NewAccrualService(store, referralSvc)

	result, err := svc.CreditDueProfit(ctx, join.ID, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("CreditDueProfit() error = %v", err)
	}
	if result != CreditResultCredited {
		t.Fatalf("result = %v, want credited", result)
	}

	// Level 1 takes 5% of the credited 10.
	if u := store.mustUser(1); u.TeamEarnings != 0.5 {
		t.Errorf("referrer team earnings = %v, want 0.5", u.TeamEarnings)
	}

	txs := store.transactionsOfType(model.TransactionTypeTeamEarnings)
	if len(txs) != 1 {
		t.Fatalf("team earnings transactions = %d, want 1", len(txs))
	}
	if txs[0].SourceUserID == nil || *txs[0].SourceUserID != 2 {
		t.Errorf("source_user_id = %v, want 2", txs[0].SourceUserID)
	}
	if txs[0].ReferralLevel == nil || *txs[0].ReferralLevel != 1 {
		t.Errorf("referral_level = %v, want 1", txs[0].ReferralLevel)
	}
	if txs[0].ReferenceID == nil || *txs[0].ReferenceID != join.ID {
		t.Errorf("reference_id = %v, want join id", txs[0].ReferenceID)
	}
}
