package testutils

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"time"

	"pickmeup-backend/auth"
	"pickmeup-backend/models"
	"pickmeup-backend/store"

	"github.com/gin-gonic/gin"
)

func SetupTestRouter() *gin.Engine {
	r := gin.New()
	return r
}

func InitTestMain() {
	gin.SetMode(gin.TestMode)
}

type subscription struct {
	query      store.Query
	onSnapshot store.SnapshotFunc
	onError    store.ErrorFunc
	dead       bool
}

// FakeStore is an in-memory DocumentStore. Mutations broadcast a fresh full
// snapshot to every live subscription synchronously, so tests observe the
// same re-delivery contract the real store provides without a database.
type FakeStore struct {
	mu      sync.Mutex
	seq     int
	items   map[models.Collection]map[string]models.ItemReport
	order   map[models.Collection][]string
	subs    map[models.Collection]map[int]*subscription
	nextSub int

	// Injected failures, checked before touching state.
	CreateErr error
	GetErr    error
	UpdateErr error
	DeleteErr error
	ListErr   error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		items: map[models.Collection]map[string]models.ItemReport{},
		order: map[models.Collection][]string{},
		subs:  map[models.Collection]map[int]*subscription{},
	}
}

func (s *FakeStore) colItems(col models.Collection) map[string]models.ItemReport {
	if s.items[col] == nil {
		s.items[col] = map[string]models.ItemReport{}
	}
	return s.items[col]
}

func matches(item models.ItemReport, q store.Query) bool {
	if q.UserID != "" && item.UserID != q.UserID {
		return false
	}
	if q.Status != "" && item.Status != q.Status {
		return false
	}
	if q.Category != "" && item.Category != q.Category {
		return false
	}
	return true
}

// snapshotLocked returns the collection contents in insertion order.
func (s *FakeStore) snapshotLocked(col models.Collection, q store.Query) []models.ItemReport {
	out := []models.ItemReport{}
	for _, id := range s.order[col] {
		item, ok := s.colItems(col)[id]
		if ok && matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func (s *FakeStore) broadcastLocked(col models.Collection) {
	for _, sub := range s.subs[col] {
		if !sub.dead {
			sub.onSnapshot(s.snapshotLocked(col, sub.query))
		}
	}
}

// EmitError fails every live subscription on the collection once; they stay
// silent afterwards, matching the transport-error contract.
func (s *FakeStore) EmitError(col models.Collection, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs[col] {
		if !sub.dead {
			sub.dead = true
			sub.onError(err)
		}
	}
}

// Seed inserts an item directly, bypassing error injection, and returns its id.
func (s *FakeStore) Seed(col models.Collection, item models.ItemReport) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("item-%d", s.seq)
	item.ID = id
	s.colItems(col)[id] = item
	s.order[col] = append(s.order[col], id)
	s.broadcastLocked(col)
	return id
}

// Count reports how many documents the collection holds.
func (s *FakeStore) Count(col models.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colItems(col))
}

func (s *FakeStore) Create(ctx context.Context, col models.Collection, item models.ItemReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return "", s.CreateErr
	}
	s.seq++
	id := fmt.Sprintf("item-%d", s.seq)
	item.ID = id
	s.colItems(col)[id] = item
	s.order[col] = append(s.order[col], id)
	s.broadcastLocked(col)
	return id, nil
}

func (s *FakeStore) Get(ctx context.Context, col models.Collection, id string) (*models.ItemReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	item, ok := s.colItems(col)[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *FakeStore) UpdatePartial(ctx context.Context, col models.Collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	item, ok := s.colItems(col)[id]
	if !ok {
		return store.ErrNotFound
	}
	applyFields(&item, fields)
	s.colItems(col)[id] = item
	s.broadcastLocked(col)
	return nil
}

func (s *FakeStore) Delete(ctx context.Context, col models.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.colItems(col)[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.colItems(col), id)
	for i, oid := range s.order[col] {
		if oid == id {
			s.order[col] = append(s.order[col][:i], s.order[col][i+1:]...)
			break
		}
	}
	s.broadcastLocked(col)
	return nil
}

func (s *FakeStore) List(ctx context.Context, col models.Collection, q store.Query) ([]models.ItemReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.snapshotLocked(col, q), nil
}

func (s *FakeStore) Subscribe(ctx context.Context, col models.Collection, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (func(), error) {
	s.mu.Lock()
	if s.ListErr != nil {
		s.mu.Unlock()
		return nil, s.ListErr
	}
	s.nextSub++
	id := s.nextSub
	if s.subs[col] == nil {
		s.subs[col] = map[int]*subscription{}
	}
	sub := &subscription{query: q, onSnapshot: onSnapshot, onError: onError}
	s.subs[col][id] = sub
	initial := s.snapshotLocked(col, q)
	s.mu.Unlock()

	onSnapshot(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[col], id)
			s.mu.Unlock()
		})
	}, nil
}

// Subscribers reports how many live subscriptions the collection has.
func (s *FakeStore) Subscribers(col models.Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[col])
}

// applyFields mirrors the partial-update field names the coordinator writes.
func applyFields(item *models.ItemReport, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "title":
			item.Title = value.(string)
		case "description":
			item.Description = value.(string)
		case "location":
			item.Location = value.(string)
		case "address":
			item.Address = value.(string)
		case "category":
			item.Category = value.(string)
		case "phone":
			item.Phone = value.(string)
		case "email":
			item.Email = value.(string)
		case "image_urls":
			item.ImageURLs = value.([]string)
		case "status":
			item.Status = value.(models.Status)
		case "recovery_details":
			d := value.(models.RecoveryDetails)
			item.RecoveryDetails = &d
		case "return_details":
			d := value.(models.ReturnDetails)
			item.ReturnDetails = &d
		case "updated_at":
			item.UpdatedAt = value.(time.Time)
		}
	}
}

// FakeUploader resolves pending images to deterministic URLs, failing the
// filenames listed in FailOn.
type FakeUploader struct {
	mu     sync.Mutex
	FailOn map[string]error
	count  int
}

func (u *FakeUploader) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.FailOn[file.Filename]; err != nil {
		return "", err
	}
	u.count++
	return "https://images.test/" + file.Filename, nil
}

func (u *FakeUploader) Uploads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}

// FakeProvider is an in-memory identity provider for handler tests.
type FakeProvider struct {
	mu        sync.Mutex
	passwords map[string]string
	nextUID   int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{passwords: map[string]string{}}
}

func (p *FakeProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.passwords[email]; ok {
		return nil, auth.ErrEmailInUse
	}
	p.passwords[email] = password
	p.nextUID++
	return &auth.Session{UID: fmt.Sprintf("uid-%d", p.nextUID), Email: email, Token: "token-" + email}, nil
}

func (p *FakeProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stored, ok := p.passwords[email]; !ok || stored != password {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.Session{UID: "uid-" + email, Email: email, Token: "token-" + email}, nil
}

func (p *FakeProvider) Reauthenticate(ctx context.Context, email, currentPassword string) (*auth.Session, error) {
	return p.SignIn(ctx, email, currentPassword)
}

func (p *FakeProvider) ChangePassword(ctx context.Context, session *auth.Session, newPassword string) error {
	if session == nil || session.Token == "" {
		return auth.ErrInvalidCredentials
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwords[session.Email] = newPassword
	return nil
}
