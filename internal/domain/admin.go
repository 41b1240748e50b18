package domain

import "time"

type TopSellingProduct struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	TotalSold    int    `json:"totalSold"`
	TotalRevenue int64  `json:"totalRevenue"`
}

type RecentOrder struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
	Total       int64       `json:"total"`
	Customer    string      `json:"customer"`
	Email       string      `json:"email"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type AdminStats struct {
	TotalProducts      int                 `json:"totalProducts"`
	TotalOrders        int                 `json:"totalOrders"`
	TotalRevenue       int64               `json:"totalRevenue"`
	PendingOrders      int                 `json:"pendingOrders"`
	StatusCounts       map[string]int      `json:"statusCounts"`
	TopSellingProducts []TopSellingProduct `json:"topSellingProducts"`
	RecentOrders       []RecentOrder       `json:"recentOrders"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminOrderProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image"`
	Brand string `json:"brand,omitempty"`
}

type AdminOrderItem struct {
	ID         string            `json:"id"`
	Product    AdminOrderProduct `json:"product"`
	Quantity   int               `json:"quantity"`
	TotalPrice int64             `json:"totalPrice"`
}

type AdminOrder struct {
	ID          string           `json:"id"`
	OrderNumber string           `json:"orderNumber"`
	Status      OrderStatus      `json:"status"`
	Subtotal    int64            `json:"subtotal"`
	VAT         int64            `json:"vat"`
	Shipping    int64            `json:"shipping"`
	GrandTotal  int64            `json:"grandTotal"`
	Payment     PaymentMethod    `json:"payment"`
	Address     Address          `json:"address"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Customer    Customer         `json:"customer"`
	Items       []AdminOrderItem `json:"items"`
}

// AdminUser mirrors the back-office user listing, which uses snake_case.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AdminUserInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role      Role   `json:"role" validate:"required,oneof=user admin"`
}
