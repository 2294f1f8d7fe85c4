package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gebeya/marketplace-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	Role        string    `json:"role"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

// --- City ---

type CityRequest struct {
	Name   string `json:"name" binding:"required"`
	Region string `json:"region" binding:"required"`
}

type CityResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Region string    `json:"region"`
}

type ListCitiesRequest struct {
	Name   string `form:"name"`
	Region string `form:"region"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type UpdateCategoryRequest struct {
	Name     *string    `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type BulkRenameCategoriesRequest struct {
	IDs  []uuid.UUID `json:"ids" binding:"required,min=1"`
	Name string      `json:"name" binding:"required"`
}

type BulkDeleteCategoriesRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

type CategoryResponse struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	ParentID      *uuid.UUID         `json:"parent_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Subcategories []CategoryResponse `json:"subcategories"`
}

// --- Product ---

type ImageRequest struct {
	ID  *uuid.UUID `json:"id"`
	URL string     `json:"url" binding:"required"`
}

type VariantRequest struct {
	ID       *uuid.UUID `json:"id"`
	Size     string     `json:"size"`
	Color    string     `json:"color"`
	Material string     `json:"material"`
	Stock    int        `json:"stock" binding:"min=0"`
}

type CreateProductRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Price       decimal.Decimal  `json:"price" binding:"required"`
	Currency    string           `json:"currency"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	CityID      *uuid.UUID       `json:"city_id"`
	Images      []ImageRequest   `json:"images"`
	Variants    []VariantRequest `json:"variants"`
}

// UpdateProductRequest uses pointers throughout so that an absent field can
// be told apart from an explicit zero value. A nil Images/Variants slice
// leaves that child collection untouched; an empty one deletes it entirely.
type UpdateProductRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Price       *decimal.Decimal     `json:"price"`
	Currency    *string              `json:"currency"`
	CategoryID  *uuid.UUID           `json:"category_id"`
	CityID      *uuid.UUID           `json:"city_id"`
	Status      *model.ProductStatus `json:"status"`
	Images      *[]ImageRequest      `json:"images"`
	Variants    *[]VariantRequest    `json:"variants"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=title price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
	Currency string `form:"currency"`
}

type ConvertedPrice struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type ImageResponse struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type VariantResponse struct {
	ID       uuid.UUID `json:"id"`
	Size     string    `json:"size,omitempty"`
	Color    string    `json:"color,omitempty"`
	Material string    `json:"material,omitempty"`
	Stock    int       `json:"stock"`
}

type ProductResponse struct {
	ID             uuid.UUID           `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Price          decimal.Decimal     `json:"price"`
	Currency       string              `json:"currency"`
	ConvertedPrice *ConvertedPrice     `json:"converted_price,omitempty"`
	CategoryID     *uuid.UUID          `json:"category_id,omitempty"`
	CityID         *uuid.UUID          `json:"city_id,omitempty"`
	SellerID       uuid.UUID           `json:"seller_id"`
	Status         model.ProductStatus `json:"status"`
	Images         []ImageResponse     `json:"images"`
	Variants       []VariantResponse   `json:"variants"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Favorite ---

type AddFavoriteRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

type FavoriteResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Review ---

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Comment   string    `json:"comment" binding:"required"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	IsFlagged bool      `json:"is_flagged"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewListResponse struct {
	Reviews       []ReviewResponse `json:"reviews"`
	Total         int              `json:"total"`
	AverageRating float64          `json:"average_rating"`
}

// --- Order ---

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	ShippingAddress string             `json:"shipping_address" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderRequest replaces the item set wholesale when Items is present;
// a nil Items leaves the persisted items untouched.
type UpdateOrderRequest struct {
	Status          *model.OrderStatus  `json:"status"`
	ShippingAddress *string             `json:"shipping_address"`
	Items           *[]OrderItemRequest `json:"items" binding:"omitempty,dive"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          model.OrderStatus   `json:"status"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	ShippingAddress string              `json:"shipping_address"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}
