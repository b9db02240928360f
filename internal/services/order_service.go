package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"littlelemon/internal/apperr"
	"littlelemon/internal/listing"
	"littlelemon/internal/logger"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderOrdering maps public ordering keys to order columns.
var orderOrdering = map[string]string{
	"date":   "created_at",
	"total":  "total",
	"status": "status",
}

var defaultOrderOrdering = listing.SortField{Column: "created_at", Desc: true}

// OrderUpdate is the payload of the role-dependent order update.
type OrderUpdate struct {
	DeliveryCrew string `json:"delivery_crew"`
}

// OrderService implements the order workflow: placing orders from carts,
// role-scoped reads, crew assignment and delivery marking.
type OrderService struct {
	orders    repositories.OrderRepository
	users     repositories.UserRepository
	tx        repositories.Transactor
	publisher EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are published.
func NewOrderService(orders repositories.OrderRepository, users repositories.UserRepository, tx repositories.Transactor, publisher EventPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		tx:        tx,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceOrder turns the caller's cart into an order and empties the cart in a
// single transaction. It returns a nil order and no error when the cart is empty.
func (s *OrderService) PlaceOrder(ctx context.Context, ident models.Identity) (*models.Order, error) {
	if !ident.IsCustomer() {
		return nil, apperr.Forbidden("only customers can place orders")
	}

	var placed *models.Order
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		lines, err := repos.Carts.ListByUser(ctx, ident.UserID)
		if err != nil {
			return fmt.Errorf("failed to read cart: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}

		order := &models.Order{
			ID:        uuid.New().String(),
			UserID:    ident.UserID,
			Status:    models.OrderPending,
			CreatedAt: s.now().UTC(),
			Items:     make([]models.OrderItem, 0, len(lines)),
		}
		total := decimal.Zero
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: line.MenuItemID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				Price:      line.Price,
			})
			total = total.Add(line.Price)
		}
		order.Total = total

		if err := repos.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		removed, err := repos.Carts.ClearByUser(ctx, ident.UserID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		// A line added between the read and the delete would be lost.
		if removed != int64(len(lines)) {
			return apperr.Conflict("cart changed while placing the order, please retry")
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, classify(err, "failed to place order")
	}
	if placed == nil {
		return nil, nil
	}

	logger.L().Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", placed.UserID),
		zap.Int("items", len(placed.Items)),
		zap.String("total", placed.Total.StringFixed(2)))
	publishOrderEvent(s.publisher, models.NewOrderEvent(models.EventOrderPlaced, placed, s.now().UTC()))
	return placed, nil
}

// GetOrder returns an order with its items if the caller may see it.
func (s *OrderService) GetOrder(ctx context.Context, ident models.Identity, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case ident.IsManager():
	case ident.IsDeliveryCrew():
		if !order.IsAssignedTo(ident.UserID) {
			return nil, apperr.Forbidden("this order is not assigned to you")
		}
	default:
		if order.UserID != ident.UserID {
			return nil, apperr.Forbidden("you can only view your own orders")
		}
	}
	return order, nil
}

// ListOrders returns the page of orders visible to the caller.
func (s *OrderService) ListOrders(ctx context.Context, ident models.Identity, ordering string, page listing.Page) (listing.Result[models.Order], error) {
	fields, err := listing.ParseOrdering(ordering, orderOrdering, defaultOrderOrdering)
	if err != nil {
		return listing.Result[models.Order]{}, err
	}

	var filter repositories.OrderFilter
	switch {
	case ident.IsManager():
	case ident.IsDeliveryCrew():
		filter.DeliveryCrewID = ident.UserID
	default:
		filter.UserID = ident.UserID
	}

	orders, count, err := s.orders.List(ctx, filter, fields, page)
	if err != nil {
		return listing.Result[models.Order]{}, apperr.Internal("failed to list orders", err)
	}
	return listing.NewResult(orders, count, page), nil
}

// UpdateOrder dispatches on the caller's role: Managers assign a delivery
// crew, Delivery Crew mark the order delivered.
func (s *OrderService) UpdateOrder(ctx context.Context, ident models.Identity, orderID string, update OrderUpdate) (*models.Order, error) {
	if ident.IsCustomer() {
		return nil, apperr.Forbidden("customers cannot update orders")
	}
	if _, err := s.load(ctx, orderID); err != nil {
		return nil, err
	}

	switch {
	case ident.IsManager():
		return s.AssignCrew(ctx, ident, orderID, update.DeliveryCrew)
	case ident.IsDeliveryCrew():
		return s.MarkDelivered(ctx, ident, orderID)
	default:
		return nil, apperr.Forbidden("customers cannot update orders")
	}
}

// AssignCrew sets the order's delivery crew to the user named crewUsername.
// The status is left as is.
func (s *OrderService) AssignCrew(ctx context.Context, ident models.Identity, orderID, crewUsername string) (*models.Order, error) {
	if !ident.IsManager() {
		return nil, apperr.Forbidden(managerOnly)
	}
	crewUsername = strings.TrimSpace(crewUsername)
	if crewUsername == "" {
		return nil, apperr.FieldError("delivery_crew", "delivery_crew is required")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	crew, err := s.users.GetByUsername(ctx, crewUsername)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("user '%s' not found", crewUsername))
	}
	if !slices.Contains(crew.GroupNames(), models.GroupDeliveryCrew) {
		return nil, apperr.Forbidden(fmt.Sprintf("user '%s' is not a delivery crew member", crewUsername))
	}

	if err := s.orders.UpdateDeliveryCrew(ctx, order.ID, crew.ID); err != nil {
		return nil, lookupError(err, "order not found")
	}
	order.DeliveryCrewID = &crew.ID

	logger.L().Info("order assigned",
		zap.String("order_id", order.ID),
		zap.String("delivery_crew_id", crew.ID),
		zap.String("assigned_by", ident.UserID))
	publishOrderEvent(s.publisher, models.NewOrderEvent(models.EventOrderAssigned, order, s.now().UTC()))
	return order, nil
}

// MarkDelivered moves an order assigned to the caller to Delivered. Marking a
// delivered order again succeeds without a second event.
func (s *OrderService) MarkDelivered(ctx context.Context, ident models.Identity, orderID string) (*models.Order, error) {
	if !ident.IsDeliveryCrew() {
		return nil, apperr.Forbidden("only delivery crew can mark orders as delivered")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsAssignedTo(ident.UserID) {
		return nil, apperr.Forbidden("this order is not assigned to you")
	}
	if order.Status == models.OrderDelivered {
		return order, nil
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderDelivered); err != nil {
		return nil, lookupError(err, "order not found")
	}
	order.Status = models.OrderDelivered

	logger.L().Info("order delivered",
		zap.String("order_id", order.ID),
		zap.String("delivery_crew_id", ident.UserID))
	publishOrderEvent(s.publisher, models.NewOrderEvent(models.EventOrderDelivered, order, s.now().UTC()))
	return order, nil
}

// DeleteOrder removes an order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, ident models.Identity, orderID string) error {
	if !ident.IsManager() {
		return apperr.Forbidden(managerOnly)
	}

	var deleted *models.Order
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		order, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := repos.Orders.Delete(ctx, order.ID); err != nil {
			return err
		}
		deleted = order
		return nil
	})
	if err != nil {
		return lookupError(err, "order not found")
	}

	logger.L().Info("order deleted", zap.String("order_id", deleted.ID), zap.String("deleted_by", ident.UserID))
	publishOrderEvent(s.publisher, models.NewOrderEvent(models.EventOrderDeleted, deleted, s.now().UTC()))
	return nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, lookupError(err, "order not found")
	}
	return order, nil
}
