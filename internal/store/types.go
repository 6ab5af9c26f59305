package store

import "time"

// Customer is the account-bearing identity. Registration, login and the
// refresh-token lifecycle all operate on customers; RefreshTokenSig holds
// the signature segment of the single currently valid refresh token and is
// empty after logout.
type Customer struct {
	ID              string
	Name            string
	Age             int
	Gender          string
	Phone           string
	Address         string
	Email           string
	PasswordHash    string
	Role            string
	RefreshTokenSig string
	CreatedAt       time.Time
}

// User is a directory record managed through the user CRUD operations.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
}

// Product is a catalog item.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Stock       int
	CreatedAt   time.Time
}

// Order links a user to a product. TotalPrice is computed at creation
// from the product price and quantity.
type Order struct {
	ID         string
	UserID     string
	ProductID  string
	Quantity   int
	TotalPrice float64
	Status     string
	CreatedAt  time.Time
}

// Valid order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Category groups products.
type Category struct {
	ID          string
	Name        string
	Description string
}

// UserUpdate applies a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name  *string
	Email *string
}

// ProductUpdate applies a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
}

// CategoryUpdate applies a partial update; nil fields are left unchanged.
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// CustomerUpdate applies a partial update; nil fields are left unchanged.
type CustomerUpdate struct {
	Name    *string
	Age     *int
	Gender  *string
	Phone   *string
	Address *string
}
