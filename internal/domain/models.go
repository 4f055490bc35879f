package domain

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// DeliveryPickup is the delivery descriptor for in-store pickup; every other
// descriptor is treated as a paid delivery.
const DeliveryPickup = "pickup"

// DeliveryFee is the flat charge, in FCFA, added to non-pickup orders.
const DeliveryFee = 1000

type Ingredient struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type NutritionFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Weight         string          `json:"weight"`
	Price          int             `json:"price"`
	ProductionCost int             `json:"productionCost"`
	Image          string          `json:"image,omitempty"`
	Description    string          `json:"description,omitempty"`
	Ingredients    []Ingredient    `json:"ingredients,omitempty"`
	Nutrition      []NutritionFact `json:"nutrition,omitempty"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`
}

type CustomerInfo struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	IsWhatsapp    bool   `json:"isWhatsapp"`
	DeliveryPlace string `json:"deliveryPlace"`
}

// OrderItem carries the unit price and production cost captured at order
// time. ProductID may hold a product name on legacy records.
type OrderItem struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	Price         int    `json:"price,omitempty"`
	PurchasePrice int    `json:"purchasePrice,omitempty"`
}

type Order struct {
	ID           string       `json:"id"`
	Items        []OrderItem  `json:"items"`
	Total        int          `json:"total"`
	CreatedAt    string       `json:"createdAt"`
	Date         string       `json:"date"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Status       OrderStatus  `json:"status"`
	Delivery     string       `json:"delivery"`
	Payment      string       `json:"payment,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Tel       string `json:"tel"`
	Status    string `json:"statut"`
	Password  string `json:"password,omitempty"`
	Protected bool   `json:"protected"`
}

// WithoutPassword returns a copy safe to serialize in API responses.
func (u User) WithoutPassword() User {
	u.Password = ""
	return u
}

type ReportRow struct {
	Customer       string `json:"customer"`
	Phone          string `json:"phone"`
	Products       string `json:"products"`
	Total          int    `json:"total"`
	Date           string `json:"date"`
	Delivery       string `json:"delivery"`
	Status         string `json:"status"`
	ProductionCost int    `json:"productionCost"`
}

type Report struct {
	Revenue             int         `json:"revenue"`
	Margin              int         `json:"margin"`
	DeliveryFeeTotal    int         `json:"deliveryFeeTotal"`
	ProductionCostTotal int         `json:"productionCostTotal"`
	Profit              int         `json:"profit"`
	OrderCount          int         `json:"orderCount"`
	Rows                []ReportRow `json:"orders"`
}

type OrderEvent struct {
	Type      string `json:"type"`
	OrderID   string `json:"order_id"`
	Total     int    `json:"total"`
	ItemCount int    `json:"item_count"`
	Timestamp string `json:"timestamp"`
}
