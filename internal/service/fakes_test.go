package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/filestore"
	"github.com/linemk/shop-api/internal/kafka"
	"github.com/linemk/shop-api/internal/mailer"
	"github.com/linemk/shop-api/internal/payment"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/shopspring/decimal"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, err := f.GetUserByEmail(ctx, user.Email); err == nil {
		return nil, storage.ErrUserExists
	}
	f.nextID++
	user.ID = f.nextID
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return nil, storage.ErrUserNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeCategoryRepo struct {
	categories map[int64]*models.Category
	nextID     int64
}

var _ storage.CategoryStorage = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo(names ...string) *fakeCategoryRepo {
	f := &fakeCategoryRepo{categories: make(map[int64]*models.Category)}
	for _, n := range names {
		_, _ = f.CreateCategory(context.Background(), &models.Category{Name: n})
	}
	return f
}

func (f *fakeCategoryRepo) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if _, err := f.GetCategoryByName(ctx, c.Name); err == nil {
		return nil, storage.ErrCategoryExists
	}
	f.nextID++
	c.ID = f.nextID
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoryRepo) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, storage.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, storage.ErrCategoryNotFound
}

func (f *fakeCategoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	out := make([]*models.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryRepo) UpdateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if _, ok := f.categories[c.ID]; !ok {
		return nil, storage.ErrCategoryNotFound
	}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoryRepo) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeProductRepo struct {
	products  map[int64]*models.Product
	nextID    int64
	getCalls  int
	updateErr error
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*models.Product)}
}

// add кладёт товар с заданной ценой и возвращает его id
func (f *fakeProductRepo) add(name string, price string) int64 {
	f.nextID++
	f.products[f.nextID] = &models.Product{
		ID:          f.nextID,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    "Electronics",
		Stock:       10,
	}
	return f.nextID
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.nextID++
	p.ID = f.nextID
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	f.getCalls++
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.products[p.ID]; !ok {
		return nil, storage.ErrProductNotFound
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

// fakeCartRepo транзакцию не использует, её открывает и закрывает sqlmock
type fakeCartRepo struct {
	carts map[int64][]models.CartItem
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[int64][]models.CartItem)}
}

func (f *fakeCartRepo) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	items, ok := f.carts[userID]
	if !ok {
		return nil, storage.ErrCartNotFound
	}
	return models.NewCart(userID, append([]models.CartItem{}, items...)), nil
}

func (f *fakeCartRepo) EnsureCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, ok := f.carts[userID]; !ok {
		f.carts[userID] = []models.CartItem{}
	}
	return nil
}

func (f *fakeCartRepo) TouchCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, ok := f.carts[userID]; !ok {
		return storage.ErrCartNotFound
	}
	return nil
}

func (f *fakeCartRepo) AddItem(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int, price decimal.Decimal) error {
	items := f.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	f.carts[userID] = append(items, models.CartItem{ProductID: productID, Quantity: quantity, Price: price, AddedAt: time.Now()})
	return nil
}

func (f *fakeCartRepo) UpdateItemQuantity(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int) error {
	items := f.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return storage.ErrCartItemNotFound
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, tx *sql.Tx, userID, productID int64) error {
	items := f.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			f.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeCartRepo) DeleteCart(ctx context.Context, userID int64) error {
	if _, ok := f.carts[userID]; !ok {
		return storage.ErrCartNotFound
	}
	delete(f.carts, userID)
	return nil
}

func (f *fakeCartRepo) DeleteCartTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	delete(f.carts, userID)
	return nil
}

func (f *fakeCartRepo) DeleteStaleCarts(ctx context.Context, before time.Time) (int64, error) {
	return int64(len(f.carts)), nil
}

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context) ([]*models.Order, error) {
	out := make([]*models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	if _, ok := f.orders[o.ID]; !ok {
		return nil, storage.ErrOrderNotFound
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) MarkOrderPaid(ctx context.Context, tx *sql.Tx, orderID int64, result *models.PaymentResult) error {
	o, ok := f.orders[orderID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	now := time.Now()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = result
	return nil
}

func (f *fakeOrderRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return storage.ErrOrderNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakePaymentRepo struct {
	payments  map[string]*models.Payment
	nextID    int64
	getCalls  int
	createErr error
	// onCreate срабатывает перед вставкой, имитирует параллельный запрос
	onCreate func()
}

var _ storage.PaymentStorage = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*models.Payment)}
}

func (f *fakePaymentRepo) GetPaymentByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	f.getCalls++
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, storage.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, tx *sql.Tx, p *models.Payment) (*models.Payment, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.payments[p.PaymentID]; ok {
		return nil, storage.ErrPaymentExists
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	f.payments[p.PaymentID] = p
	return p, nil
}

type fakeFiles struct {
	saved   map[string]models.Image
	deleted []string
	seq     int
	saveErr error
}

var _ filestore.Store = (*fakeFiles)(nil)

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: make(map[string]models.Image)}
}

func (f *fakeFiles) Save(ctx context.Context, r io.Reader) (models.Image, error) {
	if f.saveErr != nil {
		return models.Image{}, f.saveErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return models.Image{}, err
	}
	f.seq++
	id := fmt.Sprintf("img-%d.png", f.seq)
	img := models.Image{PublicID: id, URL: "/uploads/" + id}
	f.saved[id] = img
	return img, nil
}

func (f *fakeFiles) Delete(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	delete(f.saved, publicID)
	return nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type emitted struct {
	eventType string
	key       string
	payload   any
}

type fakeEmitter struct {
	events []emitted
	err    error
}

var _ kafka.Emitter = (*fakeEmitter)(nil)

func (f *fakeEmitter) Emit(ctx context.Context, eventType, key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, emitted{eventType: eventType, key: key, payload: payload})
	return nil
}

type fakeGateway struct {
	last payment.IntentRequest
	err  error
}

func (f *fakeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil
}
