package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/model"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (m *mockOrderRepo) UpdateShippingAddress(_ context.Context, id uuid.UUID, address string) error {
	if o, ok := m.orders[id]; ok {
		o.ShippingAddress = address
	}
	return nil
}

func (m *mockOrderRepo) ReplaceItems(_ context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	o, ok := m.orders[orderID]
	if !ok {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = orderID
	}
	o.Items = items
	return nil
}

func (m *mockOrderRepo) SumItems(_ context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if o, ok := m.orders[orderID]; ok {
		for _, it := range o.Items {
			total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return total, nil
}

func (m *mockOrderRepo) UpdateTotal(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	if o, ok := m.orders[id]; ok {
		o.TotalPrice = total
	}
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	return nil
}

func newTestOrderService(orderRepo *mockOrderRepo, productRepo *mockProductRepo) *OrderService {
	return NewOrderService(orderRepo, productRepo, nil)
}

func seedOrder(t *testing.T, repo *mockOrderRepo, userID uuid.UUID, status model.OrderStatus) *model.Order {
	t.Helper()
	order := &model.Order{
		UserID:          userID,
		Status:          status,
		ShippingAddress: "Piassa, Addis Ababa",
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newTestOrderService(orderRepo, productRepo)

	seller := uuid.New()
	product := seedProduct(t, productRepo, seller) // price 4500

	order, err := svc.CreateOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		ShippingAddress: "Bole, Addis Ababa",
		Items:           []dto.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(9000)))
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(product.Price))
}

func TestOrderService_CreateOrder_NoItems(t *testing.T) {
	svc := newTestOrderService(newMockOrderRepo(), newMockProductRepo())

	_, err := svc.CreateOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		ShippingAddress: "Bole, Addis Ababa",
	})
	assert.ErrorIs(t, err, ErrNoOrderItems)
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	svc := newTestOrderService(newMockOrderRepo(), newMockProductRepo())

	_, err := svc.CreateOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		ShippingAddress: "Bole, Addis Ababa",
		Items:           []dto.OrderItemRequest{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestOrderService_UpdateStatus_ForwardChain(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()
	order := seedOrder(t, orderRepo, user, model.OrderStatusPending)

	for _, next := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	} {
		updated, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
}

func TestOrderService_UpdateStatus_SkippingStepRejected(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()
	order := seedOrder(t, orderRepo, user, model.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, model.OrderStatusShipped)

	var transitionErr *model.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, model.OrderStatusPending, transitionErr.From)
	assert.Equal(t, model.OrderStatusShipped, transitionErr.To)

	// Rejection leaves the stored status untouched.
	stored, _ := orderRepo.GetByID(context.Background(), order.ID)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestOrderService_UpdateStatus_TerminalStates(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()

	for _, terminal := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled} {
		order := seedOrder(t, orderRepo, user, terminal)
		_, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, model.OrderStatusPending)
		var transitionErr *model.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr, "from %s", terminal)
	}
}

func TestOrderService_UpdateStatus_NoOpAllowed(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()
	order := seedOrder(t, orderRepo, user, model.OrderStatusDelivered)

	// Re-asserting the current status is never an error, even in a
	// terminal state.
	updated, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
}

func TestOrderService_UpdateStatus_UnknownStatus(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()
	order := seedOrder(t, orderRepo, user, model.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, "teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderService_UpdateStatus_CancelBeforeShipment(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	user := uuid.New()

	for _, from := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusConfirmed} {
		order := seedOrder(t, orderRepo, user, from)
		updated, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, model.OrderStatusCancelled)
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	}

	// Once shipped, cancellation is off the table.
	order := seedOrder(t, orderRepo, user, model.OrderStatusShipped)
	_, err := svc.UpdateStatus(context.Background(), order.ID, user, model.RoleCustomer, model.OrderStatusCancelled)
	var transitionErr *model.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestOrderService_MarkPaid_BypassesChain(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	order := seedOrder(t, orderRepo, uuid.New(), model.OrderStatusPending)

	// paid is unreachable through UpdateStatus from pending...
	_, err := svc.UpdateStatus(context.Background(), order.ID, order.UserID, model.RoleCustomer, model.OrderStatusPaid)
	var transitionErr *model.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// ...but the admin override writes it directly.
	updated, err := svc.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, updated.Status)
}

func TestOrderService_Update_ReplacingItemsRecalculatesTotal(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newTestOrderService(orderRepo, productRepo)

	product := seedProduct(t, productRepo, uuid.New()) // price 4500
	user := uuid.New()
	order, err := svc.CreateOrder(context.Background(), user, dto.CreateOrderRequest{
		ShippingAddress: "Bole, Addis Ababa",
		Items:           []dto.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.True(t, order.TotalPrice.Equal(decimal.NewFromInt(4500)))

	items := []dto.OrderItemRequest{{ProductID: product.ID, Quantity: 3}}
	updated, err := svc.Update(context.Background(), order.ID, user, model.RoleCustomer, dto.UpdateOrderRequest{
		Items: &items,
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(13500)))
}

func TestOrderService_RecalculateTotal_Idempotent(t *testing.T) {
	orderRepo := newMockOrderRepo()
	productRepo := newMockProductRepo()
	svc := newTestOrderService(orderRepo, productRepo)

	product := seedProduct(t, productRepo, uuid.New())
	order, err := svc.CreateOrder(context.Background(), uuid.New(), dto.CreateOrderRequest{
		ShippingAddress: "Bole, Addis Ababa",
		Items:           []dto.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	first, err := svc.RecalculateTotal(context.Background(), order.ID)
	require.NoError(t, err)
	second, err := svc.RecalculateTotal(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(decimal.NewFromInt(9000)))
}

func TestOrderService_GetByID_AccessControl(t *testing.T) {
	orderRepo := newMockOrderRepo()
	svc := newTestOrderService(orderRepo, newMockProductRepo())
	owner := uuid.New()
	order := seedOrder(t, orderRepo, owner, model.OrderStatusPending)

	_, err := svc.GetByID(context.Background(), order.ID, uuid.New(), model.RoleCustomer)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	got, err := svc.GetByID(context.Background(), order.ID, uuid.New(), model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := newTestOrderService(newMockOrderRepo(), newMockProductRepo())

	_, err := svc.GetByID(context.Background(), uuid.New(), uuid.New(), model.RoleCustomer)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
