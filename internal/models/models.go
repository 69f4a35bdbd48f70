package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Product struct {
	ID             uint              `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name           string            `gorm:"not null"                          json:"name"`
	Description    string            `gorm:"not null"                          json:"description"`
	Price          float64           `gorm:"not null;check:price >= 0"         json:"price"`
	OriginalPrice  *float64          `json:"original_price,omitempty"`
	Discount       int               `gorm:"default:0"                         json:"discount"`
	Image          string            `gorm:"not null"                          json:"image"`
	Images         []string          `gorm:"serializer:json"                   json:"images"`
	Category       string            `gorm:"not null"                          json:"category"`
	Brand          string            `gorm:"not null"                          json:"brand"`
	Rating         float64           `gorm:"default:0"                         json:"rating"`
	NumReviews     int               `gorm:"default:0"                         json:"num_reviews"`
	CountInStock   int               `gorm:"not null;default:0"                json:"count_in_stock"`
	DeliveryTime   string            `gorm:"default:3-5 days"                  json:"delivery_time"`
	Warranty       string            `gorm:"default:1 year"                    json:"warranty"`
	Features       []string          `gorm:"serializer:json"                   json:"features"`
	Specifications map[string]string `gorm:"serializer:json"                   json:"specifications"`
	IsActive       bool              `gorm:"default:true"                      json:"is_active"`
	OwnerID        uint              `gorm:"index;not null"                    json:"owner_id"`
	Owner          *User             `gorm:"foreignKey:OwnerID"                json:"owner,omitempty"`
	Tags           []string          `gorm:"serializer:json"                   json:"tags"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Cart is unique per user. Total is never stored, it is recomputed on every
// read from the line snapshots.
type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"     json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID"        json:"items"`
	Total     float64    `gorm:"-"                        json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem snapshots name/price/image at add time. ProductID may be nil for
// lines written before referential integrity was enforced; such lines are
// retained for visibility but excluded from checkout until repaired.
type CartItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"   json:"id"`
	CartID    uint     `gorm:"index;not null"             json:"cart_id"`
	ProductID *uint    `gorm:"index"                      json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID"       json:"product,omitempty"`
	Name      string   `gorm:"not null"                   json:"name"`
	Price     float64  `gorm:"not null"                   json:"price"`
	Image     string   `json:"image"`
	Quantity  uint     `gorm:"default:1;check:quantity>0" json:"quantity"`
	Resolved  bool     `gorm:"-"                          json:"resolved"`
}

type ShippingAddress struct {
	Address    string `gorm:"not null" json:"address"`
	City       string `gorm:"not null" json:"city"`
	State      string `gorm:"not null" json:"state"`
	PostalCode string `gorm:"not null" json:"postal_code"`
	Country    string `gorm:"not null" json:"country"`
	Phone      string `gorm:"not null" json:"phone"`
}

type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodStripe = "Stripe"

	OrderStatusPending   = "Pending"
	OrderStatusDelivered = "Delivered"
)

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID          uint            `gorm:"index;not null"                    json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID"                 json:"user,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null"                          json:"payment_method"`
	ItemsPrice      float64         `gorm:"not null"                          json:"items_price"`
	TaxPrice        float64         `gorm:"not null"                          json:"tax_price"`
	ShippingPrice   float64         `gorm:"not null"                          json:"shipping_price"`
	TotalPrice      float64         `gorm:"not null"                          json:"total_price"`
	IsPaid          bool            `gorm:"default:false"                     json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	PaymentResult   PaymentResult   `gorm:"embedded;embeddedPrefix:payment_"  json:"payment_result"`
	IsDelivered     bool            `gorm:"default:false"                     json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Status          string          `gorm:"not null;default:Pending"          json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is an immutable snapshot taken at checkout. The product
// reference is kept so the seller can be resolved later, but pricing never
// reads the live product back.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"order_id"`
	ProductID uint    `gorm:"not null"                 json:"product_id"`
	Name      string  `gorm:"not null"                 json:"name"`
	Image     string  `json:"image"`
	Price     float64 `gorm:"not null"                 json:"price"`
	Quantity  uint    `gorm:"not null"                 json:"quantity"`
}

const (
	MessageTypeBuyerToOwner = "buyer_to_owner"
	MessageTypeOwnerToBuyer = "owner_to_buyer"
	MessageTypeSystem       = "system"
)

type Message struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	OrderID     uint      `gorm:"index;not null"                  json:"order_id"`
	SenderID    uint      `gorm:"index;not null"                  json:"sender_id"`
	Sender      *User     `gorm:"foreignKey:SenderID"             json:"sender,omitempty"`
	RecipientID uint      `gorm:"index;not null"                  json:"recipient_id"`
	Recipient   *User     `gorm:"foreignKey:RecipientID"          json:"recipient,omitempty"`
	Body        string    `gorm:"not null"                        json:"message"`
	IsRead      bool      `gorm:"default:false"                   json:"is_read"`
	Type        string    `gorm:"not null;default:buyer_to_owner" json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                     json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_product" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"                            json:"user,omitempty"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_user_product" json:"product_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"   json:"rating"`
	Comment   string    `gorm:"not null"                                     json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
