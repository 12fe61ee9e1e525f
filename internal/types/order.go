package types

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// OrderStatus is the closed set of order states, stored as the legacy
// integer and exposed as a string.
type OrderStatus string

const (
	OrderWaitCheck OrderStatus = "waitCheck"
	OrderChecked   OrderStatus = "checked"
	OrderFinished  OrderStatus = "finish"
)

func (s OrderStatus) Int() int {
	switch s {
	case OrderChecked:
		return 1
	case OrderFinished:
		return 2
	default:
		return 0
	}
}

func OrderStatusFromInt(v int) (OrderStatus, error) {
	switch v {
	case 0:
		return OrderWaitCheck, nil
	case 1:
		return OrderChecked, nil
	case 2:
		return OrderFinished, nil
	default:
		return "", fmt.Errorf("unknown order status value %d", v)
	}
}

// Order is an owned resource anchored to the buyer's identity.
type Order struct {
	ID         int64       `json:"order_id"`
	Status     OrderStatus `json:"status"`
	CreateDate time.Time   `json:"create_date"`
	UserID     string      `json:"user_id"`
	ProductID  int64       `json:"product_id"`
}

type CreateOrderParams struct {
	ProductID int64 `json:"product_id"`
}

func (p CreateOrderParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ProductID, validation.Required, validation.Min(int64(0))),
	)
}
