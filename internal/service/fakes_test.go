package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acwadtec/cashapp-backend/internal/model"
	"github.com/acwadtec/cashapp-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for *repository.Repository with the
// same sentinel errors and compare-and-swap behavior, so the services
// can be exercised without a database.
type fakeStore struct {
	mu sync.Mutex

	users            map[int64]*model.User
	offers           map[uuid.UUID]*model.Offer
	offerJoins       map[uuid.UUID]*model.OfferJoin
	certificates     map[uuid.UUID]*model.InvestmentCertificate
	certificateJoins map[uuid.UUID]*model.CertificateJoin
	edges            []model.ReferralEdge
	profitRecords    []model.DailyProfitRecord
	transactions     []model.Transaction

	referralSettings model.ReferralSettings
	multipliers      model.GamificationMultipliers
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:            make(map[int64]*model.User),
		offers:           make(map[uuid.UUID]*model.Offer),
		offerJoins:       make(map[uuid.UUID]*model.OfferJoin),
		certificates:     make(map[uuid.UUID]*model.InvestmentCertificate),
		certificateJoins: make(map[uuid.UUID]*model.CertificateJoin),
		referralSettings: model.DefaultReferralSettings(),
		multipliers:      model.DefaultGamificationMultipliers(),
	}
}

func (f *fakeStore) addUser(u model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := u
	f.users[u.ID] = &stored
	return &stored
}

func (f *fakeStore) addOffer(o model.Offer) *model.Offer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	stored := o
	f.offers[o.ID] = &stored
	return &stored
}

func (f *fakeStore) addCertificate(c model.InvestmentCertificate) *model.InvestmentCertificate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := c
	f.certificates[c.ID] = &stored
	return &stored
}

// creditLocked adjusts one balance and writes the ledger entry, the
// fake equivalent of the repository's locked credit. Caller holds mu.
func (f *fakeStore) creditLocked(userID int64, t model.BalanceType, delta float64, tx *model.Transaction) error {
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	before := u.BalanceFor(t)
	after := before + delta
	if delta < 0 && after < 0 {
		return repository.ErrInsufficientBalance
	}
	switch t {
	case model.BalanceTypeMain:
		u.Balance = after
	case model.BalanceTypeBonuses:
		u.BonusBalance = after
	case model.BalanceTypeTeamEarnings:
		u.TeamEarnings = after
	case model.BalanceTypeTotalPoints:
		u.TotalPoints = after
	}
	if tx != nil {
		tx.ID = uuid.New()
		tx.UserID = userID
		tx.Amount = delta
		tx.Status = model.TransactionStatusCompleted
		tx.BalanceBefore = before
		tx.BalanceAfter = after
		f.transactions = append(f.transactions, *tx)
	}
	return nil
}

// --- UserStore ---

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

// --- OfferStore ---

func (f *fakeStore) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeStore) ListOffers(ctx context.Context, activeOnly bool) ([]model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Offer
	for _, o := range f.offers {
		if activeOnly && !o.Active {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeStore) GetOfferJoin(ctx context.Context, id uuid.UUID) (*model.OfferJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.offerJoins[id]
	if !ok {
		return nil, repository.ErrOfferJoinNotFound
	}
	copied := *j
	return &copied, nil
}

func (f *fakeStore) GetUserOfferJoins(ctx context.Context, userID int64) ([]model.OfferJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OfferJoin
	for _, j := range f.offerJoins {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) FindCurrentJoin(ctx context.Context, userID int64, offerID uuid.UUID) (*model.OfferJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.offerJoins {
		if j.UserID == userID && j.OfferID == offerID && j.Status != model.JoinStatusWithdrawn {
			copied := *j
			return &copied, nil
		}
	}
	return nil, repository.ErrOfferJoinNotFound
}

func (f *fakeStore) CreateOfferJoin(ctx context.Context, join *model.OfferJoin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if join.ID == uuid.Nil {
		join.ID = uuid.New()
	}
	stored := *join
	f.offerJoins[join.ID] = &stored
	return nil
}

func (f *fakeStore) ApproveOfferJoin(ctx context.Context, id uuid.UUID, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.offerJoins[id]
	if !ok {
		return repository.ErrOfferJoinNotFound
	}
	if j.Status != model.JoinStatusPending {
		return repository.ErrConflict
	}
	j.Status = model.JoinStatusApproved
	at := now
	j.ApprovedAt = &at
	last := now
	j.LastProfitAt = &last
	return nil
}

func (f *fakeStore) TransitionOfferJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.offerJoins[id]
	if !ok {
		return repository.ErrOfferJoinNotFound
	}
	for _, s := range from {
		if j.Status == s {
			j.Status = to
			return nil
		}
	}
	return repository.ErrConflict
}

// --- AccrualStore ---

func (f *fakeStore) ListAccruableJoins(ctx context.Context, now time.Time) ([]model.OfferJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OfferJoin
	for _, j := range f.offerJoins {
		if j.Status != model.JoinStatusApproved || j.ApprovedAt == nil {
			continue
		}
		if !j.ApprovedAt.After(now.Add(-model.OfferMaturity)) {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeStore) CreditDailyProfit(ctx context.Context, join *model.OfferJoin, amount, points float64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.offerJoins[join.ID]
	if !ok {
		return repository.ErrOfferJoinNotFound
	}
	if stored.Status != model.JoinStatusApproved || !timesEqual(stored.LastProfitAt, join.LastProfitAt) {
		return repository.ErrConflict
	}

	last := now
	stored.LastProfitAt = &last

	f.profitRecords = append(f.profitRecords, model.DailyProfitRecord{
		ID:          uuid.New(),
		OfferJoinID: stored.ID,
		UserID:      stored.UserID,
		Amount:      amount,
		ProfitDate:  now,
	})

	ref := stored.ID
	if err := f.creditLocked(stored.UserID, model.BalanceTypeMain, amount, &model.Transaction{
		Type:        model.TransactionTypeDailyProfit,
		ReferenceID: &ref,
	}); err != nil {
		return err
	}
	if points > 0 {
		if err := f.creditLocked(stored.UserID, model.BalanceTypeTotalPoints, points, &model.Transaction{
			Type:        model.TransactionTypeProfitPoints,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
	}

	join.LastProfitAt = &last
	return nil
}

func (f *fakeStore) TotalProfit(ctx context.Context, joinID uuid.UUID) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, r := range f.profitRecords {
		if r.OfferJoinID == joinID {
			total += r.Amount
		}
	}
	return total, nil
}

func (f *fakeStore) GetGamificationMultipliers(ctx context.Context) (*model.GamificationMultipliers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := f.multipliers
	return &copied, nil
}

// --- ReferralStore ---

func (f *fakeStore) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ReferralCode == code {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) ApplyReferralCommission(ctx context.Context, newUserID int64, code string, edges []model.ReferralEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	referred, ok := f.users[newUserID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if referred.ReferredBy != nil {
		return repository.ErrAlreadyReferred
	}
	for _, e := range edges {
		for _, existing := range f.edges {
			if existing.ReferredID == e.ReferredID && existing.Level == e.Level {
				return repository.ErrDuplicateReferralEdge
			}
		}
	}

	referred.ReferredBy = &code
	for _, e := range edges {
		e.ID = uuid.New()
		f.edges = append(f.edges, e)
		referrer, ok := f.users[e.ReferrerID]
		if !ok {
			return repository.ErrUserNotFound
		}
		referrer.ReferralCount++
		if e.PointsEarned > 0 {
			level := e.Level
			source := newUserID
			if err := f.creditLocked(e.ReferrerID, model.BalanceTypeTotalPoints, e.PointsEarned, &model.Transaction{
				Type:          model.TransactionTypeReferralPoints,
				SourceUserID:  &source,
				ReferralLevel: &level,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeStore) EdgesForReferred(ctx context.Context, referredID int64) ([]model.ReferralEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReferralEdge
	for _, e := range f.edges {
		if e.ReferredID == referredID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) EdgesForReferrer(ctx context.Context, referrerID int64) ([]model.ReferralEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReferralEdge
	for _, e := range f.edges {
		if e.ReferrerID == referrerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetReferralStats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &model.ReferralStats{}
	for _, e := range f.edges {
		if e.ReferrerID == referrerID {
			stats.TotalReferrals++
			stats.PointsEarned += e.PointsEarned
		}
	}
	return stats, nil
}

func (f *fakeStore) CreditTeamEarnings(ctx context.Context, referrerID int64, amount float64, level int, sourceUserID int64, referenceID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lvl := level
	source := sourceUserID
	ref := referenceID
	return f.creditLocked(referrerID, model.BalanceTypeTeamEarnings, amount, &model.Transaction{
		Type:          model.TransactionTypeTeamEarnings,
		SourceUserID:  &source,
		ReferralLevel: &lvl,
		ReferenceID:   &ref,
	})
}

func (f *fakeStore) GetReferralSettings(ctx context.Context) (*model.ReferralSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := f.referralSettings
	return &copied, nil
}

// --- CertificateStore ---

func (f *fakeStore) GetCertificate(ctx context.Context, id uuid.UUID) (*model.InvestmentCertificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.certificates[id]
	if !ok {
		return nil, repository.ErrCertificateNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) ListCertificates(ctx context.Context, activeOnly bool) ([]model.InvestmentCertificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.InvestmentCertificate
	for _, c := range f.certificates {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) GetCertificateJoin(ctx context.Context, id uuid.UUID) (*model.CertificateJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.certificateJoins[id]
	if !ok {
		return nil, repository.ErrCertificateJoinNotFound
	}
	copied := *j
	return &copied, nil
}

func (f *fakeStore) GetUserCertificateJoins(ctx context.Context, userID int64) ([]model.CertificateJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CertificateJoin
	for _, j := range f.certificateJoins {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCertificateJoin(ctx context.Context, join *model.CertificateJoin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if join.ID == uuid.Nil {
		join.ID = uuid.New()
	}
	ref := join.ID
	if err := f.creditLocked(join.UserID, join.BalanceType, -join.Amount, &model.Transaction{
		Type:        model.InvestmentTransactionType(join.BalanceType),
		ReferenceID: &ref,
	}); err != nil {
		return err
	}
	stored := *join
	f.certificateJoins[join.ID] = &stored
	return nil
}

func (f *fakeStore) ApproveCertificateJoin(ctx context.Context, id uuid.UUID, now, nextProfitDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.certificateJoins[id]
	if !ok {
		return repository.ErrCertificateJoinNotFound
	}
	if j.Status != model.JoinStatusPending {
		return repository.ErrConflict
	}
	j.Status = model.JoinStatusApproved
	at := now
	j.ApprovedAt = &at
	next := nextProfitDate
	j.NextProfitDate = &next
	return nil
}

func (f *fakeStore) TransitionCertificateJoin(ctx context.Context, id uuid.UUID, to model.JoinStatus, from ...model.JoinStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.certificateJoins[id]
	if !ok {
		return repository.ErrCertificateJoinNotFound
	}
	for _, s := range from {
		if j.Status == s {
			j.Status = to
			return nil
		}
	}
	return repository.ErrConflict
}

func (f *fakeStore) ListPayableCertificateJoins(ctx context.Context, now time.Time) ([]model.CertificateJoin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CertificateJoin
	for _, j := range f.certificateJoins {
		if j.ProfitDue(now) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) CreditMonthlyProfit(ctx context.Context, join *model.CertificateJoin, amount float64, nextProfitDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.certificateJoins[join.ID]
	if !ok {
		return repository.ErrCertificateJoinNotFound
	}
	if stored.Status != model.JoinStatusApproved || !timesEqual(stored.NextProfitDate, join.NextProfitDate) {
		return repository.ErrConflict
	}

	next := nextProfitDate
	stored.NextProfitDate = &next
	stored.ProfitsPaid++

	ref := stored.ID
	if err := f.creditLocked(stored.UserID, model.BalanceTypeMain, amount, &model.Transaction{
		Type:        model.TransactionTypeMonthlyProfit,
		ReferenceID: &ref,
	}); err != nil {
		return err
	}

	join.NextProfitDate = &next
	join.ProfitsPaid = stored.ProfitsPaid
	return nil
}

// --- test helpers ---

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (f *fakeStore) transactionsOfType(t model.TransactionType) []model.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, tx := range f.transactions {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

func (f *fakeStore) mustUser(id int64) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}
