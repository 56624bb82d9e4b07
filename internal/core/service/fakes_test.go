package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// In-memory fakes shared across the service tests. They mimic the remote
// gateway closely enough to exercise the caching and realtime semantics
// without a database.

type fakeKV struct {
	mu   sync.Mutex
	data map[string][]byte
	// failing makes every operation error, for degraded-path tests.
	failing bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (kv *fakeKV) Get(ctx context.Context, key string, dest any) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.failing {
		return false, errKVDown
	}
	raw, ok := kv.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (kv *fakeKV) Set(ctx context.Context, key string, value any) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.failing {
		return errKVDown
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	kv.data[key] = raw
	return nil
}

func (kv *fakeKV) Remove(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

// fakeFeed dispatches published events synchronously to matching
// subscriptions, applying the same type and principal filters as the real
// feed.
type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
}

type fakeSub struct {
	feed        *fakeFeed
	table       string
	types       []ports.EventType
	principalID string
	handler     ports.ChangeHandler
	closed      bool
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{}
}

func (f *fakeFeed) Publish(ctx context.Context, event ports.ChangeEvent) error {
	f.mu.Lock()
	subs := make([]*fakeSub, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		if s.closed || s.table != event.Table {
			continue
		}
		if s.principalID != "" && s.principalID != event.PrincipalID {
			continue
		}
		if len(s.types) > 0 && !containsType(s.types, event.Type) {
			continue
		}
		s.handler(event)
	}
	return nil
}

func (f *fakeFeed) Subscribe(ctx context.Context, table string, types []ports.EventType, principalID string, handler ports.ChangeHandler) (ports.Subscription, error) {
	s := &fakeSub{feed: f, table: table, types: types, principalID: principalID, handler: handler}
	f.mu.Lock()
	f.subs = append(f.subs, s)
	f.mu.Unlock()
	return s, nil
}

func (s *fakeSub) Close() error {
	s.feed.mu.Lock()
	s.closed = true
	s.feed.mu.Unlock()
	return nil
}

func containsType(types []ports.EventType, t ports.EventType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// fakeFavoriteRepo stores pairs in memory and can be told to fail, to prove
// the cache never mutates on an unconfirmed write.
type fakeFavoriteRepo struct {
	mu      sync.Mutex
	pairs   map[string]map[string]struct{} // principal -> listing set
	failing bool
	inserts int
	deletes int
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{pairs: make(map[string]map[string]struct{})}
}

func (r *fakeFavoriteRepo) Insert(ctx context.Context, principalID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errRemoteDown
	}
	r.inserts++
	set, ok := r.pairs[principalID]
	if !ok {
		set = make(map[string]struct{})
		r.pairs[principalID] = set
	}
	set[listingID] = struct{}{}
	return nil
}

func (r *fakeFavoriteRepo) Delete(ctx context.Context, principalID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errRemoteDown
	}
	r.deletes++
	delete(r.pairs[principalID], listingID)
	return nil
}

func (r *fakeFavoriteRepo) Exists(ctx context.Context, principalID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pairs[principalID][listingID]
	return ok, nil
}

func (r *fakeFavoriteRepo) ListListingIDs(ctx context.Context, principalID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errRemoteDown
	}
	out := make([]string, 0, len(r.pairs[principalID]))
	for id := range r.pairs[principalID] {
		out = append(out, id)
	}
	return out, nil
}

// fakeNotificationRepo keeps notifications newest first, like the real
// repository's sorted query.
type fakeNotificationRepo struct {
	mu      sync.Mutex
	items   []domain.Notification
	nextID  int
	failing bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) List(ctx context.Context, principalID string, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errRemoteDown
	}
	out := make([]domain.Notification, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].PrincipalID != principalID {
			continue
		}
		out = append(out, r.items[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errRemoteDown
	}
	r.nextID++
	n.ID = "n" + strconv.Itoa(r.nextID)
	r.items = append(r.items, *n)
	return nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, principalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].PrincipalID == principalID {
			r.items[i].Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

type fakeRoleRepo struct {
	mu          sync.Mutex
	assignments map[string][]domain.RoleAssignment
	failing     bool
	calls       int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{assignments: make(map[string][]domain.RoleAssignment)}
}

func (r *fakeRoleRepo) ListByPrincipal(ctx context.Context, principalID string) ([]domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failing {
		return nil, errRemoteDown
	}
	return r.assignments[principalID], nil
}

func (r *fakeRoleRepo) Assign(ctx context.Context, principalID string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[principalID] = append(r.assignments[principalID], domain.RoleAssignment{
		PrincipalID: principalID,
		Role:        role,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (r *fakeRoleRepo) Revoke(ctx context.Context, principalID string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.assignments[principalID][:0]
	for _, a := range r.assignments[principalID] {
		if a.Role != role {
			kept = append(kept, a)
		}
	}
	r.assignments[principalID] = kept
	return nil
}

func (r *fakeRoleRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings []*domain.Listing
}

func (r *fakeListingRepo) Insert(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings = append(r.listings, &cp)
	return nil
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listings {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *fakeListingRepo) ListActive(ctx context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Listing, 0)
	for _, l := range r.listings {
		if l.Status == domain.ListingActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Listing, 0)
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == l.ID {
			cp := *l
			r.listings[i] = &cp
			return nil
		}
	}
	return domain.ErrListingNotFound
}

func (r *fakeListingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			r.listings = append(r.listings[:i], r.listings[i+1:]...)
			return nil
		}
	}
	return domain.ErrListingNotFound
}

type fakeCategoryRepo struct {
	mu   sync.Mutex
	cats []*domain.Category
}

func (r *fakeCategoryRepo) Insert(ctx context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cats {
		if existing.Slug == c.Slug {
			return domain.ErrDuplicateSlug
		}
	}
	cp := *c
	r.cats = append(r.cats, &cp)
	return nil
}

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cats {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cats {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) ListAll(ctx context.Context) ([]*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Category, 0, len(r.cats))
	for _, c := range r.cats {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cats {
		if r.cats[i].ID == c.ID {
			cp := *c
			r.cats[i] = &cp
			return nil
		}
	}
	return domain.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cats {
		if r.cats[i].ID == id {
			r.cats = append(r.cats[:i], r.cats[i+1:]...)
			return nil
		}
	}
	return domain.ErrCategoryNotFound
}

type fakeUserRepo struct {
	mu         sync.Mutex
	users      []*domain.User
	pushTokens map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{pushTokens: make(map[string]string)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	cp := *u
	cp.ID = "u" + strconv.Itoa(len(r.users)+1)
	r.users = append(r.users, &cp)
	out := cp
	return &out, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) UpdatePushToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushTokens[userID] = token
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// fakeBridge records scheduled local notifications.
type fakeBridge struct {
	mu        sync.Mutex
	native    bool
	scheduled []string
	token     string
}

func (b *fakeBridge) IsNative() bool { return b.native }

func (b *fakeBridge) ScheduleLocal(ctx context.Context, title, message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled = append(b.scheduled, title)
	return nil
}

func (b *fakeBridge) RegisterPush(ctx context.Context) (string, error) {
	if !b.native {
		return "", domain.ErrPushUnavailable
	}
	if b.token == "" {
		b.token = "push-token-1"
	}
	return b.token, nil
}

func (b *fakeBridge) scheduledTitles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.scheduled))
	copy(out, b.scheduled)
	return out
}

var (
	errRemoteDown = errSentinel("remote unavailable")
	errKVDown     = errSentinel("kv unavailable")
)

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
