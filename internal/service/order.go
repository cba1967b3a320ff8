package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/kafka"
	"github.com/linemk/shop-api/internal/storage"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	Create(ctx context.Context, userID int64, in CreateOrderInput) (*models.Order, error)
	MyOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	AllOrders(ctx context.Context) ([]*models.Order, models.OrderStats, error)
	Get(ctx context.Context, who Requester, id int64) (*models.Order, error)
	MarkPaid(ctx context.Context, who Requester, id int64, paymentRef string) (*models.Order, error)
	Delete(ctx context.Context, who Requester, id int64) error
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error)
	Edit(ctx context.Context, id int64, in EditOrderInput) (*models.Order, error)
}

// Requester — кто выполняет запрос: владелец или администратор
type Requester struct {
	UserID  int64
	IsAdmin bool
}

func (r Requester) canAccess(o *models.Order) bool {
	return r.IsAdmin || o.UserID == r.UserID
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ShippingPrice   decimal.Decimal
}

// EditOrderInput nil-адрес и пустой список позиций не меняют заказ
type EditOrderInput struct {
	ShippingAddress *models.ShippingAddress
	Items           []OrderItemInput
}

type orderService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
	userRepo    storage.UserStorage
	events      kafka.Emitter
}

func NewOrderService(
	log *slog.Logger,
	orderRepo storage.OrderStorage,
	productRepo storage.ProductStorage,
	userRepo storage.UserStorage,
	events kafka.Emitter,
) OrderService {
	return &orderService{
		log:         log,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

// Create считает цены по таблице товаров, клиентские цены не принимаются
func (s *orderService) Create(ctx context.Context, userID int64, in CreateOrderInput) (*models.Order, error) {
	const op = "service.OrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	items, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	itemsPrice := items.Total()
	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      itemsPrice.Add(in.ShippingPrice),
		Status:          models.OrderStatusPending,
	}

	order, err = s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, logger, kafka.EventOrderCreated, order.ID, kafka.OrderCreatedPayload{
		OrderID:    order.ID,
		UserID:     userID,
		ItemsCount: len(order.Items),
		TotalPrice: order.TotalPrice,
	})
	logger.Info("order created", slog.Int64("orderID", order.ID), slog.String("total", order.TotalPrice.String()))
	return order, nil
}

func (s *orderService) MyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.MyOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to fetch user orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) AllOrders(ctx context.Context) ([]*models.Order, models.OrderStats, error) {
	const op = "service.OrderService.AllOrders"

	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		s.log.Error("failed to fetch all orders", slog.String("op", op), slog.Any("error", err))
		return nil, models.OrderStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return orders, models.ComputeOrderStats(orders), nil
}

func (s *orderService) Get(ctx context.Context, who Requester, id int64) (*models.Order, error) {
	const op = "service.OrderService.Get"

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !who.canAccess(order) {
		s.log.Warn("order access denied", slog.String("op", op), slog.Int64("orderID", id), slog.Int64("userID", who.UserID))
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return order, nil
}

// MarkPaid ручная отметка оплаты владельцем или администратором
func (s *orderService) MarkPaid(ctx context.Context, who Requester, id int64, paymentRef string) (*models.Order, error) {
	const op = "service.OrderService.MarkPaid"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !who.canAccess(order) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if order.IsPaid {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyPaid)
	}

	var email string
	if user, err := s.userRepo.GetUserByID(ctx, who.UserID); err == nil {
		email = user.Email
	} else {
		logger.Warn("failed to load payer email", slog.Any("error", err))
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &models.PaymentResult{
		ID:           paymentRef,
		Status:       string(models.PaymentStatusCompleted),
		UpdateTime:   now,
		EmailAddress: email,
	}

	order, err = s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error("failed to mark order paid", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("order marked as paid")
	return order, nil
}

// Delete: сначала 404 для несуществующего заказа, затем проверка прав администратора
func (s *orderService) Delete(ctx context.Context, who Requester, id int64) error {
	const op = "service.OrderService.Delete"

	if _, err := s.orderRepo.GetOrderByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !who.IsAdmin {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		s.log.Error("failed to delete order", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order deleted", slog.String("op", op), slog.Int64("orderID", id))
	return nil
}

// UpdateStatus допускает любой переход между допустимыми статусами
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !status.Valid() {
		return nil, validationErrorf("Invalid status")
	}

	prev := order.Status
	order.Status = status
	order, err = s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, logger, kafka.EventOrderStatusChanged, id, kafka.OrderStatusChangedPayload{
		OrderID: id,
		From:    string(prev),
		To:      string(status),
	})
	logger.Info("order status updated", slog.String("from", string(prev)), slog.String("to", string(status)))
	return order, nil
}

// Edit при замене позиций пересчитывает items_price и total_price, доставка сохраняется
func (s *orderService) Edit(ctx context.Context, id int64, in EditOrderInput) (*models.Order, error) {
	const op = "service.OrderService.Edit"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.ShippingAddress != nil {
		order.ShippingAddress = *in.ShippingAddress
	}
	if len(in.Items) > 0 {
		items, err := s.priceItems(ctx, in.Items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		order.Items = items
		order.ItemsPrice = items.Total()
		order.TotalPrice = order.ItemsPrice.Add(order.ShippingPrice)
	}

	order, err = s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		logger.Error("failed to edit order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("order edited")
	return order, nil
}

// priceItems подставляет имя и текущую цену товара в каждую позицию
func (s *orderService) priceItems(ctx context.Context, in []OrderItemInput) (models.OrderItems, error) {
	if len(in) == 0 {
		return nil, validationErrorf("No order items")
	}

	ids := make([]int64, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make(models.OrderItems, 0, len(in))
	for _, it := range in {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, validationErrorf("Product %d does not exist", it.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
	}
	return items, nil
}

// emit ошибки публикации логируются, запрос не падает
func (s *orderService) emit(ctx context.Context, logger *slog.Logger, eventType string, orderID int64, payload any) {
	if err := s.events.Emit(ctx, eventType, strconv.FormatInt(orderID, 10), payload); err != nil {
		logger.Warn("failed to publish event", slog.String("event", eventType), slog.Any("error", err))
	}
}
