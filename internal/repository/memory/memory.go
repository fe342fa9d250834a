// Package memory is an in-memory repository.Store. It is safe for concurrent
// use and is intended for tests and local development (STORE_DRIVER=memory).
package memory

import (
	"cmp"
	"context"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"healthloop/internal/domain"
	"healthloop/internal/repository"
)

type grantKey struct {
	userID int64
	period string
}

type badgeKey struct {
	userID    int64
	badgeType domain.BadgeType
}

// state holds every table. Values, never pointers, so a shallow clone is a
// consistent snapshot.
type state struct {
	users  map[int64]domain.User
	emails map[string]int64
	ledger []domain.PointsTransaction
	badges map[badgeKey]domain.Badge
	grants map[grantKey]time.Time
	audit  []domain.AuditLog

	nextUserID  int64
	nextTxID    int64
	nextBadgeID int64
	nextAuditID int64
}

func (st *state) clone() *state {
	c := *st
	c.users = maps.Clone(st.users)
	c.emails = maps.Clone(st.emails)
	c.ledger = slices.Clip(st.ledger)
	c.badges = maps.Clone(st.badges)
	c.grants = maps.Clone(st.grants)
	c.audit = slices.Clip(st.audit)
	return &c
}

// Store serializes units of work with a single mutex. WithinTx works on a
// copy of the state and swaps it in only when fn succeeds.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides time.Now for created_at / earned_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		st: &state{
			users:  make(map[int64]domain.User),
			emails: make(map[string]int64),
			badges: make(map[badgeKey]domain.Badge),
			grants: make(map[grantKey]time.Time),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithinTx must not be re-entered from fn; use q for every read and write.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q repository.LoyaltyQueries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &queries{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.st.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.st.emails[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := s.st.users[id]
	return &u, nil
}

func (s *Store) ListUsersByMembership(_ context.Context, levels []domain.MembershipLevel, afterID int64, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*domain.User
	for _, u := range s.st.users {
		if u.ID > afterID && slices.Contains(levels, u.MembershipLevel) {
			res = append(res, &u)
		}
	}
	slices.SortFunc(res, func(a, b *domain.User) int { return cmp.Compare(a.ID, b.ID) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, before repository.Cursor, limit int) ([]*domain.PointsTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*domain.PointsTransaction
	for _, tx := range s.st.ledger {
		if tx.UserID != userID {
			continue
		}
		if !before.IsZero() && !olderThan(tx, before) {
			continue
		}
		res = append(res, &tx)
	}
	slices.SortFunc(res, func(a, b *domain.PointsTransaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func olderThan(tx domain.PointsTransaction, c repository.Cursor) bool {
	if tx.CreatedAt.Equal(c.CreatedAt) {
		return tx.ID < c.ID
	}
	return tx.CreatedAt.Before(c.CreatedAt)
}

func (s *Store) ListBadges(_ context.Context, userID int64) ([]*domain.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*domain.Badge
	for k, b := range s.st.badges {
		if k.userID == userID {
			res = append(res, &b)
		}
	}
	slices.SortFunc(res, func(a, b *domain.Badge) int {
		if c := a.EarnedAt.Compare(b.EarnedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return res, nil
}

func (s *Store) ProgramStats(_ context.Context, today, weekAgo time.Time) (*domain.ProgramStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &domain.ProgramStats{
		MembersByLevel:      make(map[domain.PointsLevel]int64),
		MembersByMembership: make(map[domain.MembershipLevel]int64),
	}
	for _, u := range s.st.users {
		if u.Role != domain.RoleClient {
			continue
		}
		st.TotalMembers++
		st.MembersByLevel[u.Level]++
		st.MembersByMembership[u.MembershipLevel]++
	}

	active := make(map[int64]struct{})
	for _, tx := range s.st.ledger {
		st.PointsAwardedTotal += tx.Points
		if !tx.CreatedAt.Before(today) {
			st.PointsAwardedToday += tx.Points
		}
		if !tx.CreatedAt.Before(weekAgo) {
			st.PointsAwardedWeek += tx.Points
			if s.st.users[tx.UserID].Role == domain.RoleClient {
				active[tx.UserID] = struct{}{}
			}
		}
	}
	st.ActiveMembersWeek = int64(len(active))
	return st, nil
}

func (s *Store) TopEarners(_ context.Context, limit int) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*domain.User
	for _, u := range s.st.users {
		if u.Role == domain.RoleClient {
			res = append(res, &u)
		}
	}
	slices.SortFunc(res, func(a, b *domain.User) int {
		if c := cmp.Compare(b.TotalPointsEarned, a.TotalPointsEarned); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return s.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		return q.CreateAuditLog(ctx, log)
	})
}

func (s *Store) ListAuditLogs(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*domain.AuditLog
	for i := len(s.st.audit) - 1; i >= 0 && len(res) < limit; i-- {
		if l := s.st.audit[i]; l.UserID == userID {
			res = append(res, &l)
		}
	}
	return res, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// queries operates on a private working copy of the state.
type queries struct {
	st  *state
	now func() time.Time
}

func (q *queries) CreateUser(_ context.Context, u *domain.User) error {
	key := strings.ToLower(u.Email)
	if _, taken := q.st.emails[key]; taken {
		return repository.ErrDuplicate
	}
	if u.Role == "" {
		u.Role = domain.RoleClient
	}
	if u.Level == "" {
		u.Level = domain.LevelBeginner
	}
	if u.MembershipLevel == "" {
		u.MembershipLevel = domain.MembershipBasic
	}
	q.st.nextUserID++
	u.ID = q.st.nextUserID
	u.Points = 0
	u.TotalPointsEarned = 0
	u.CreatedAt = q.now()

	q.st.users[u.ID] = *u
	q.st.emails[key] = u.ID
	return nil
}

func (q *queries) LockUser(_ context.Context, userID int64) (*domain.User, error) {
	u, ok := q.st.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (q *queries) CreditPoints(_ context.Context, userID int64, amount int64) (*domain.User, error) {
	u, ok := q.st.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if amount > math.MaxInt64-u.TotalPointsEarned || amount > math.MaxInt64-u.Points {
		return nil, repository.ErrOutOfRange
	}
	u.Points += amount
	u.TotalPointsEarned += amount
	q.st.users[userID] = u
	return &u, nil
}

func (q *queries) SetLevel(_ context.Context, userID int64, level domain.PointsLevel) error {
	u, ok := q.st.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Level = level
	q.st.users[userID] = u
	return nil
}

func (q *queries) SetMembershipLevel(_ context.Context, userID int64, level domain.MembershipLevel) error {
	u, ok := q.st.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.MembershipLevel = level
	q.st.users[userID] = u
	return nil
}

func (q *queries) AppendTransaction(_ context.Context, tx *domain.PointsTransaction) error {
	if _, ok := q.st.users[tx.UserID]; !ok {
		return repository.ErrNotFound
	}
	q.st.nextTxID++
	tx.ID = q.st.nextTxID
	tx.CreatedAt = q.now()
	q.st.ledger = append(q.st.ledger, *tx)
	return nil
}

func (q *queries) InsertBadge(_ context.Context, b *domain.Badge) (bool, error) {
	if _, ok := q.st.users[b.UserID]; !ok {
		return false, repository.ErrNotFound
	}
	key := badgeKey{userID: b.UserID, badgeType: b.BadgeType}
	if _, exists := q.st.badges[key]; exists {
		return false, nil
	}
	q.st.nextBadgeID++
	b.ID = q.st.nextBadgeID
	b.EarnedAt = q.now()
	q.st.badges[key] = *b
	return true, nil
}

func (q *queries) ClaimMonthlyGrant(_ context.Context, userID int64, period string) (bool, error) {
	key := grantKey{userID: userID, period: period}
	if _, exists := q.st.grants[key]; exists {
		return false, nil
	}
	q.st.grants[key] = q.now()
	return true, nil
}

func (q *queries) CreateAuditLog(_ context.Context, log *domain.AuditLog) error {
	q.st.nextAuditID++
	log.ID = q.st.nextAuditID
	log.CreatedAt = q.now()
	if log.Details == nil {
		log.Details = map[string]interface{}{}
	}
	q.st.audit = append(q.st.audit, *log)
	return nil
}
