package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-api/internal/payment"
	"github.com/linemk/shop-api/internal/service"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withUser эмулирует работу JWT middleware
func withUser(r *http.Request, userID int64, role string) *http.Request {
	ctx := context.WithValue(r.Context(), jwtmiddleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, role)
	return r.WithContext(ctx)
}

// withURLParams кладёт параметры пути в контекст chi
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeAuthService struct {
	res      *service.AuthResult
	pair     *service.TokenPair
	err      error
	register service.RegisterInput
	avatar   []byte
}

func (f *fakeAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	f.register = in
	if in.Avatar != nil {
		f.avatar, _ = io.ReadAll(in.Avatar.Content)
	}
	return f.res, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	return f.res, f.err
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	return f.pair, f.err
}

type fakeUserService struct {
	user    *models.User
	err     error
	profile service.ProfileInput
}

func (f *fakeUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.User{f.user}, nil
}

func (f *fakeUserService) UpdateProfile(ctx context.Context, id int64, in service.ProfileInput) (*models.User, error) {
	f.profile = in
	return f.user, f.err
}

func (f *fakeUserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return f.err
}

func (f *fakeUserService) AdminUpdateUser(ctx context.Context, id int64, in service.AdminUserInput) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) DeleteUser(ctx context.Context, id int64) error {
	return f.err
}

type fakeCategoryService struct {
	category *models.Category
	err      error
}

func (f *fakeCategoryService) Create(ctx context.Context, name, description string) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCategoryService) List(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{f.category}, f.err
}

func (f *fakeCategoryService) Update(ctx context.Context, id int64, name, description string) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCategoryService) Delete(ctx context.Context, id int64) error {
	return f.err
}

type fakeProductService struct {
	product   *models.Product
	err       error
	createdBy int64
	input     service.ProductInput
	update    service.ProductUpdate
	images    int
	filter    models.ProductFilter
}

func (f *fakeProductService) Create(ctx context.Context, createdBy int64, in service.ProductInput, images []service.Upload) (*models.Product, error) {
	f.createdBy, f.input, f.images = createdBy, in, len(images)
	return f.product, f.err
}

func (f *fakeProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeProductService) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	f.filter = filter
	return []*models.Product{}, f.err
}

func (f *fakeProductService) Update(ctx context.Context, id int64, in service.ProductUpdate, images []service.Upload) (*models.Product, error) {
	f.update, f.images = in, len(images)
	return f.product, f.err
}

func (f *fakeProductService) Delete(ctx context.Context, id int64) error {
	return f.err
}

type fakeCartService struct {
	cart     *models.Cart
	err      error
	lastItem [2]int64
}

func (f *fakeCartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	f.lastItem = [2]int64{productID, int64(quantity)}
	return f.cart, f.err
}

func (f *fakeCartService) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	f.lastItem = [2]int64{productID, int64(quantity)}
	return f.cart, f.err
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	f.lastItem = [2]int64{productID, 0}
	return f.cart, f.err
}

func (f *fakeCartService) ClearCart(ctx context.Context, userID int64) error {
	return f.err
}

func (f *fakeCartService) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, f.err
}

type fakeOrderService struct {
	order  *models.Order
	orders []*models.Order
	stats  models.OrderStats
	err    error
	who    service.Requester
	create service.CreateOrderInput
	edit   service.EditOrderInput
	status models.OrderStatus
}

func (f *fakeOrderService) Create(ctx context.Context, userID int64, in service.CreateOrderInput) (*models.Order, error) {
	f.create = in
	return f.order, f.err
}

func (f *fakeOrderService) MyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) AllOrders(ctx context.Context) ([]*models.Order, models.OrderStats, error) {
	return f.orders, f.stats, f.err
}

func (f *fakeOrderService) Get(ctx context.Context, who service.Requester, id int64) (*models.Order, error) {
	f.who = who
	return f.order, f.err
}

func (f *fakeOrderService) MarkPaid(ctx context.Context, who service.Requester, id int64, paymentRef string) (*models.Order, error) {
	f.who = who
	return f.order, f.err
}

func (f *fakeOrderService) Delete(ctx context.Context, who service.Requester, id int64) error {
	f.who = who
	return f.err
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	f.status = status
	return f.order, f.err
}

func (f *fakeOrderService) Edit(ctx context.Context, id int64, in service.EditOrderInput) (*models.Order, error) {
	f.edit = in
	return f.order, f.err
}

type fakePaymentService struct {
	intent  *payment.Intent
	result  *service.ConfirmResult
	err     error
	confirm service.ConfirmInput
}

func (f *fakePaymentService) CreateIntent(ctx context.Context, userID int64, in service.IntentInput) (*payment.Intent, error) {
	return f.intent, f.err
}

func (f *fakePaymentService) Confirm(ctx context.Context, userID int64, in service.ConfirmInput) (*service.ConfirmResult, error) {
	f.confirm = in
	return f.result, f.err
}

type fakeContactService struct {
	err error
}

func (f *fakeContactService) Contact(ctx context.Context, email, message string) error {
	return f.err
}
