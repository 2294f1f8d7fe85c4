package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrNoOrderItems      = errors.New("order has no items")
	ErrInvalidStatus     = errors.New("unknown order status")
)

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	amqpCh      *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, productRepo: productRepo, amqpCh: amqpCh}
}

// CreateOrder builds an order from the submitted items. The unit price of
// each item is captured from the product at this moment and never refreshed.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoOrderItems
	}

	var total decimal.Decimal
	var items []model.OrderItem
	for _, it := range req.Items {
		product, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: it.ProductID, Quantity: it.Quantity, Price: product.Price,
		})
	}

	// Initial creation is exempt from the transition check: there is no
	// prior status to transition from.
	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		TotalPrice:      total,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID, role string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID && role != model.RoleAdmin {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}

// UpdateStatus moves an order through the status state machine. The
// transition table is consulted before anything is persisted; on rejection
// the stored status is untouched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, userID uuid.UUID, role string, newStatus model.OrderStatus) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.GetByID(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}

	if err := model.ValidateTransition(order.Status, newStatus); err != nil {
		return nil, err
	}
	if order.Status == newStatus {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	order.Status = newStatus
	s.publishStatusChange(ctx, order)
	return order, nil
}

// MarkPaid is the administrative override: it writes the paid status
// directly, outside the forward chain of the transition table.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == model.OrderStatusPaid {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, model.OrderStatusPaid); err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	order.Status = model.OrderStatusPaid
	s.publishStatusChange(ctx, order)
	return order, nil
}

// Update applies a partial order mutation: an optional status transition,
// an optional shipping address change, and an optional wholesale item
// replacement followed by a total recalculation.
func (s *OrderService) Update(ctx context.Context, orderID, userID uuid.UUID, role string, req dto.UpdateOrderRequest) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != order.Status {
		if _, err := s.UpdateStatus(ctx, orderID, userID, role, *req.Status); err != nil {
			return nil, err
		}
		order.Status = *req.Status
	}

	if req.ShippingAddress != nil && *req.ShippingAddress != order.ShippingAddress {
		if err := s.orderRepo.UpdateShippingAddress(ctx, orderID, *req.ShippingAddress); err != nil {
			return nil, fmt.Errorf("update shipping address: %w", err)
		}
		order.ShippingAddress = *req.ShippingAddress
	}

	if req.Items != nil {
		var items []model.OrderItem
		for _, it := range *req.Items {
			product, err := s.productRepo.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return nil, ErrProductNotFound
			}
			items = append(items, model.OrderItem{
				ProductID: it.ProductID, Quantity: it.Quantity, Price: product.Price,
			})
		}
		if err := s.orderRepo.ReplaceItems(ctx, orderID, items); err != nil {
			return nil, fmt.Errorf("replace items: %w", err)
		}
		if _, err := s.RecalculateTotal(ctx, orderID); err != nil {
			return nil, err
		}
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

// RecalculateTotal re-derives the order total from its line items and
// persists it. Calling it again with unchanged items writes the same value.
func (s *OrderService) RecalculateTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.orderRepo.SumItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum items: %w", err)
	}
	if err := s.orderRepo.UpdateTotal(ctx, orderID, total); err != nil {
		return decimal.Zero, fmt.Errorf("update total: %w", err)
	}
	return total, nil
}

func (s *OrderService) Delete(ctx context.Context, orderID, userID uuid.UUID, role string) error {
	if _, err := s.GetByID(ctx, orderID, userID, role); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *OrderService) publishStatusChange(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.NotificationMessage{
		Kind:    model.NotificationOrderStatusChanged,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
	})
	_ = s.amqpCh.PublishWithContext(ctx, "", "notifications", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
}
