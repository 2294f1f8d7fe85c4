package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
	RoleCustomer = "customer"
)

type User struct {
	ID          uuid.UUID
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
	Role        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type City struct {
	ID     uuid.UUID
	Name   string
	Region string
}

type Category struct {
	ID        uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	CreatedAt time.Time
}

type Product struct {
	ID          uuid.UUID
	Title       string
	Description string
	Price       decimal.Decimal
	Currency    string
	CategoryID  *uuid.UUID
	CityID      *uuid.UUID
	OwnerID     uuid.UUID
	SellerID    uuid.UUID
	Status      ProductStatus
	Images      []ProductImage
	Variants    []ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	URL       string
	CreatedAt time.Time
}

type ProductVariant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Size      string
	Color     string
	Material  string
	Stock     int
}

type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time
}

type Review struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Comment   string
	IsFlagged bool
	CreatedAt time.Time
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Status          OrderStatus
	TotalPrice      decimal.Decimal
	ShippingAddress string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	// Price is the unit price captured when the order was created. It is
	// never re-read from the product afterwards.
	Price decimal.Decimal
}

// NotificationMessage is the payload published to the notifications queue.
type NotificationMessage struct {
	Kind      string      `json:"kind"`
	OrderID   uuid.UUID   `json:"order_id,omitempty"`
	Status    OrderStatus `json:"status,omitempty"`
	ReviewID  uuid.UUID   `json:"review_id,omitempty"`
	ProductID uuid.UUID   `json:"product_id,omitempty"`
	UserID    uuid.UUID   `json:"user_id,omitempty"`
}

const (
	NotificationOrderStatusChanged = "order.status_changed"
	NotificationReviewCreated      = "review.created"
)
