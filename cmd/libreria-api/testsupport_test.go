package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/libroverso/libreria-api/internal/catalog"
	ord "github.com/libroverso/libreria-api/internal/order"
	"github.com/libroverso/libreria-api/internal/payment"
	"github.com/libroverso/libreria-api/internal/push"
	"github.com/libroverso/libreria-api/internal/user"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func performRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

//
// ---------- catalog stub ----------
//

type stubCatalog struct {
	books  map[int64]*catalog.Book
	cats   map[int64]*catalog.Category
	nextID int64
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		books: map[int64]*catalog.Book{},
		cats:  map[int64]*catalog.Category{},
	}
}

func (s *stubCatalog) addCategory(nombre string) *catalog.Category {
	s.nextID++
	c := &catalog.Category{ID: s.nextID, Nombre: nombre}
	s.cats[c.ID] = c
	return c
}

func (s *stubCatalog) addBook(b catalog.Book) *catalog.Book {
	s.nextID++
	b.ID = s.nextID
	if cat, ok := s.cats[b.CategoriaID]; ok {
		b.Categoria = cat
	}
	s.books[b.ID] = &b
	return &b
}

func (s *stubCatalog) List(ctx context.Context, q catalog.Query) ([]catalog.Book, int, error) {
	ids := make([]int64, 0, len(s.books))
	for id, b := range s.books {
		if q.Nombre != "" && !strings.Contains(strings.ToLower(b.Nombre), strings.ToLower(q.Nombre)) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := len(ids)

	limit := q.Limit
	if limit < 0 {
		limit = len(ids) // negative means the whole catalog
	} else if limit == 0 {
		limit = 9
	}
	offset := q.Offset
	if offset > len(ids) {
		offset = len(ids)
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	out := []catalog.Book{}
	for _, id := range ids[offset:end] {
		out = append(out, *s.books[id])
	}
	return out, total, nil
}

func (s *stubCatalog) GetByID(ctx context.Context, id int64) (*catalog.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return b, nil
}

func (s *stubCatalog) GetByName(ctx context.Context, nombre string) (*catalog.Book, error) {
	for _, b := range s.books {
		if b.Nombre == nombre {
			return b, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *stubCatalog) Create(ctx context.Context, b *catalog.Book) error {
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	if cat, ok := s.cats[cp.CategoriaID]; ok {
		cp.Categoria = cat
	}
	s.books[cp.ID] = &cp
	return nil
}

func (s *stubCatalog) Update(ctx context.Context, b *catalog.Book) error {
	old, ok := s.books[b.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	cp := *b
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now()
	if cat, ok := s.cats[cp.CategoriaID]; ok {
		cp.Categoria = cat
	}
	s.books[cp.ID] = &cp
	return nil
}

func (s *stubCatalog) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.books[id]; !ok {
		return false, nil
	}
	delete(s.books, id)
	return true, nil
}

func (s *stubCatalog) Categories(ctx context.Context) ([]catalog.Category, error) {
	ids := make([]int64, 0, len(s.cats))
	for id := range s.cats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []catalog.Category{}
	for _, id := range ids {
		out = append(out, *s.cats[id])
	}
	return out, nil
}

func (s *stubCatalog) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	c, ok := s.cats[id]
	if !ok {
		return nil, catalog.ErrCategoryNotFound
	}
	return c, nil
}

func (s *stubCatalog) GetCategoryByName(ctx context.Context, nombre string) (*catalog.Category, error) {
	for _, c := range s.cats {
		if c.Nombre == nombre {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (s *stubCatalog) CreateCategory(ctx context.Context, c *catalog.Category) error {
	s.nextID++
	c.ID = s.nextID
	s.cats[c.ID] = c
	return nil
}

//
// ---------- order stub ----------
//

// stubOrders keeps orders and book stocks in memory, mirroring the
// semantics of the PG repo: the approved guard and shortfall skip on
// writes, and the libro/user joins on reads.
type stubOrders struct {
	orders []*ord.Order
	stocks map[int64]ord.BookStock
	books  map[int64]*catalog.Book
	users  map[int64]ord.UserSummary
	nextID int64
}

func newStubOrders() *stubOrders {
	return &stubOrders{
		stocks: map[int64]ord.BookStock{},
		books:  map[int64]*catalog.Book{},
		users:  map[int64]ord.UserSummary{},
	}
}

// joined returns a copy of o the way the PG repo reads it back: every
// item with its libro, and the owner attached when withUser is set.
func (s *stubOrders) joined(o *ord.Order, withUser bool) ord.Order {
	cp := *o
	cp.Items = make([]ord.Item, len(o.Items))
	copy(cp.Items, o.Items)
	for i := range cp.Items {
		if b, ok := s.books[cp.Items[i].LibroID]; ok {
			cp.Items[i].Libro = b
		}
	}
	if u, ok := s.users[o.UserID]; withUser && ok {
		cp.Usuario = &u
	}
	return cp
}

func (s *stubOrders) Create(ctx context.Context, o *ord.Order, items []ord.Item) error {
	s.nextID++
	o.ID = s.nextID
	o.CreatedAt = time.Now()
	cp := *o
	cp.Items = items
	s.orders = append(s.orders, &cp)
	o.Items = items
	return nil
}

func (s *stubOrders) GetByID(ctx context.Context, id int64) (*ord.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ord.ErrNotFound
}

func (s *stubOrders) ListByUser(ctx context.Context, userID int64) ([]ord.Order, error) {
	out := []ord.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, s.joined(o, false))
		}
	}
	return out, nil
}

func (s *stubOrders) ListAll(ctx context.Context) ([]ord.Order, error) {
	out := []ord.Order{}
	for _, o := range s.orders {
		out = append(out, s.joined(o, true))
	}
	return out, nil
}

func (s *stubOrders) GetByPaymentRef(ctx context.Context, ref string) (*ord.Order, error) {
	for _, o := range s.orders {
		if o.PaymentRef == ref {
			return o, nil
		}
	}
	return nil, ord.ErrNotFound
}

func (s *stubOrders) ApplyPaymentStatus(ctx context.Context, orderID int64, status string, adjustStock bool) (*ord.ApplyResult, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev := o.PaymentStatus
	o.PaymentStatus = status
	res := &ord.ApplyResult{AlreadyApproved: prev == ord.StatusApproved}
	if adjustStock && !res.AlreadyApproved {
		dec, shortfalls := ord.PlanStockAdjustment(o.Items, s.stocks)
		for id, qty := range dec {
			bs := s.stocks[id]
			bs.Stock -= qty
			s.stocks[id] = bs
		}
		res.Shortfalls = shortfalls
	}
	return res, nil
}

//
// ---------- user stub ----------
//

type stubUsers struct {
	byID   map[int64]*user.User
	nextID int64
}

func newStubUsers() *stubUsers {
	return &stubUsers{byID: map[int64]*user.User{}}
}

func (s *stubUsers) add(nombre, email, password, role string) *user.User {
	hash, _ := user.HashPassword(password)
	s.nextID++
	u := &user.User{ID: s.nextID, Nombre: nombre, Email: email, PasswordHash: hash, Role: role}
	s.byID[u.ID] = u
	return u
}

func (s *stubUsers) Create(ctx context.Context, u *user.User) error {
	for _, e := range s.byID {
		if e.Email == u.Email {
			return user.ErrAlreadyExist
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	cp := *u
	s.byID[cp.ID] = &cp
	return nil
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

//
// ---------- gateway stubs ----------
//

// scriptedFetcher returns payment.ErrNotFound the first notFound calls
// and the configured payment afterwards.
type scriptedFetcher struct {
	notFound int
	payment  *payment.Payment
	err      error
	calls    int
}

func (f *scriptedFetcher) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.notFound {
		return nil, payment.ErrNotFound
	}
	return f.payment, nil
}

type stubPreferences struct {
	lastReq payment.PreferenceRequest
	pref    *payment.Preference
	err     error
}

func (s *stubPreferences) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.pref, nil
}

//
// ---------- push stubs ----------
//

type stubPushRepo struct {
	subs       map[string]*push.Subscription
	stats      push.Stats
	nextID     int64
	deliveries int
}

func newStubPushRepo() *stubPushRepo {
	return &stubPushRepo{subs: map[string]*push.Subscription{}}
}

func (s *stubPushRepo) Save(ctx context.Context, sub *push.Subscription) error {
	if existing, ok := s.subs[sub.Endpoint]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		sub.ID = s.nextID
		sub.CreatedAt = time.Now()
	}
	cp := *sub
	s.subs[cp.Endpoint] = &cp
	return nil
}

func (s *stubPushRepo) Remove(ctx context.Context, endpoint string) error {
	delete(s.subs, endpoint)
	return nil
}

func (s *stubPushRepo) List(ctx context.Context) ([]push.Subscription, error) {
	out := []push.Subscription{}
	for _, sub := range s.subs {
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubPushRepo) Get(ctx context.Context, endpoint string) (*push.Subscription, error) {
	sub, ok := s.subs[endpoint]
	if !ok {
		return nil, push.ErrNotFound
	}
	return sub, nil
}

func (s *stubPushRepo) RecordDelivery(ctx context.Context, successful, failed int) error {
	s.deliveries++
	s.stats.TotalSent += int64(successful + failed)
	s.stats.Successful += int64(successful)
	s.stats.Failed += int64(failed)
	now := time.Now()
	s.stats.LastSent = &now
	return nil
}

func (s *stubPushRepo) Stats(ctx context.Context) (*push.Stats, error) {
	st := s.stats
	st.TotalSubscriptions = len(s.subs)
	return &st, nil
}

type stubBroadcaster struct {
	sent, failed  int
	err           error
	broadcastHits int
	sendToHits    int
	lastTitle     string
	lastBody      string
}

func (s *stubBroadcaster) Broadcast(ctx context.Context, title, body string) (int, int, error) {
	s.broadcastHits++
	s.lastTitle, s.lastBody = title, body
	return s.sent, s.failed, s.err
}

func (s *stubBroadcaster) SendTo(ctx context.Context, sub *push.Subscription, title, body string) error {
	s.sendToHits++
	s.lastTitle, s.lastBody = title, body
	return s.err
}
