package businessflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/dti-portal/app/services"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func fixedClock(t *time.Time) utils.Clock {
	return func() time.Time { return *t }
}

// fakeAccountRepo is an in-memory AccountRepository. Saves run the same
// normalization the gorm hooks run.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uint]*models.Account
	nextID   uint

	verificationCodeWrites int
	failSave               error
	failUpdate             error
}

func newFakeAccountRepo(accounts ...*models.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[uint]*models.Account), nextID: 1}
	for _, a := range accounts {
		_ = r.Save(context.Background(), a)
	}
	return r
}

func (r *fakeAccountRepo) ByID(ctx context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) matches(a *models.Account, f models.AccountFilter) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.UUID != nil && a.UUID != *f.UUID {
		return false
	}
	if f.Username != nil && a.Username != *f.Username {
		return false
	}
	if f.Email != nil && a.Email != *f.Email {
		return false
	}
	if f.Role != nil && a.Role != *f.Role {
		return false
	}
	if f.IsSuperuser != nil && a.IsSuperuser != *f.IsSuperuser {
		return false
	}
	if f.IsVerified != nil && utils.IsTrue(a.IsVerified) != *f.IsVerified {
		return false
	}
	if f.IsActive != nil && utils.IsTrue(a.IsActive) != *f.IsActive {
		return false
	}
	return true
}

func (r *fakeAccountRepo) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint, 0, len(r.accounts))
	for id, a := range r.accounts {
		if r.matches(a, filter) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if orderBy == "id ASC" {
			return ids[i] < ids[j]
		}
		return ids[i] > ids[j]
	})

	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*models.Account, 0, len(ids))
	for _, id := range ids {
		cp := *r.accounts[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAccountRepo) Save(ctx context.Context, a *models.Account) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := a.BeforeCreate(nil); err != nil {
		return err
	}
	a.Normalize()
	if a.ID == 0 {
		a.ID = r.nextID
		r.nextID++
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = fixedNow
	}
	if a.IsActive == nil {
		a.IsActive = utils.ToPtr(true)
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, a *models.Account) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a.Normalize()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) SaveBatch(ctx context.Context, entities []*models.Account) error {
	for _, a := range entities {
		if err := r.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAccountRepo) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeAccountRepo) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeAccountRepo) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	rows, _ := r.ByFilter(ctx, models.AccountFilter{Username: &username}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeAccountRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	rows, _ := r.ByFilter(ctx, models.AccountFilter{UUID: &id}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpdateVerificationCode copies only the two verification columns
func (r *fakeAccountRepo) UpdateVerificationCode(ctx context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[a.ID]
	if !ok {
		return errors.New("account not stored")
	}
	stored.VerificationCode = a.VerificationCode
	stored.VerificationCodeExpirationDate = a.VerificationCodeExpirationDate
	r.verificationCodeWrites++
	return nil
}

func (r *fakeAccountRepo) IncrementVerificationAttempts(ctx context.Context, accountID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[accountID]
	if !ok {
		return 0, errors.New("account not stored")
	}
	stored.VerificationAttempts++
	return stored.VerificationAttempts, nil
}

func (r *fakeAccountRepo) ResetVerificationAttempts(ctx context.Context, accountID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.VerificationAttempts = 0
	}
	return nil
}

func (r *fakeAccountRepo) UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (r *fakeAccountRepo) stored(id uint) *models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.accounts[id]
	return &cp
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	items  map[uint]*models.Notification
	nextID uint
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[uint]*models.Notification), nextID: 1}
}

func (r *fakeNotificationRepo) ByID(ctx context.Context, id uint) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) ByFilter(ctx context.Context, filter models.NotificationFilter, orderBy string, limit, offset int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Notification, 0)
	for _, n := range r.items {
		if filter.AccountID != nil && n.AccountID != *filter.AccountID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		if filter.UUID != nil && n.UUID != *filter.UUID {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) Save(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = n.BeforeCreate(nil)
	if n.ID == 0 {
		n.ID = r.nextID
		r.nextID++
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = fixedNow.Add(time.Duration(n.ID) * time.Second)
	}
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) SaveBatch(ctx context.Context, entities []*models.Notification) error {
	for _, n := range entities {
		if err := r.Save(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Count(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeNotificationRepo) Exists(ctx context.Context, filter models.NotificationFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeNotificationRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	rows, _ := r.ByFilter(ctx, models.NotificationFilter{UUID: &id}, "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeNotificationRepo) ListUnread(ctx context.Context, accountID uint, limit, offset int) ([]*models.Notification, error) {
	unread := false
	return r.ByFilter(ctx, models.NotificationFilter{AccountID: &accountID, IsRead: &unread}, "created_at DESC", limit, offset)
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, accountID uint) (int64, error) {
	unread := false
	return r.Count(ctx, models.NotificationFilter{AccountID: &accountID, IsRead: &unread})
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, n *models.Notification, at time.Time) error {
	n.MarkRead(at)
	return r.Update(ctx, n)
}

// fakeCaptcha accepts exactly one angle per challenge
type fakeCaptcha struct {
	answer float64
}

func (c *fakeCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "challenge", MasterImageBase64: "m", ThumbImageBase64: "t"}, nil
}

func (c *fakeCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	return challengeID == "challenge" && userAngle == c.answer
}

// failingNotifier rejects every delivery
type failingNotifier struct{}

func (failingNotifier) SendSMS(ctx context.Context, mobile, message string) error {
	return errors.New("gateway down")
}

func (failingNotifier) SendEmail(ctx context.Context, email, subject, message string) error {
	return errors.New("smtp down")
}
