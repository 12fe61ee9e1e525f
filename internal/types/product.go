package types

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// Product is an owned resource: UserID is set to the creator's identity at
// creation time and gates every mutation. Availability is stored as the
// legacy 0/1 integer and exposed as a bool.
type Product struct {
	ID           int64   `json:"product_id"`
	Name         string  `json:"product_name"`
	Picture      string  `json:"picture"`
	SellingPrice float64 `json:"selling_price"`
	Description  string  `json:"description"`
	Available    bool    `json:"available"`
	UserID       string  `json:"user_id"`
	CategoryID   int64   `json:"-"`
	CategoryName string  `json:"category"`
}

// CreateProductParams carries the validated create payload.
type CreateProductParams struct {
	Name         string  `json:"product_name"`
	Picture      string  `json:"picture"`
	SellingPrice float64 `json:"selling_price"`
	Description  string  `json:"description"`
	CategoryID   int64   `json:"category_id"`
}

// UpdateProductParams is a partial update: nil fields are left untouched.
type UpdateProductParams struct {
	ProductID    int64    `json:"product_id"`
	Name         *string  `json:"product_name"`
	Picture      *string  `json:"picture"`
	SellingPrice *float64 `json:"selling_price"`
	Description  *string  `json:"description"`
	CategoryID   *int64   `json:"category_id"`
}

func (p CreateProductParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Picture, validation.Required),
		validation.Field(&p.SellingPrice, validation.Min(0.0)),
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.CategoryID, validation.Min(int64(0))),
	)
}

func (p UpdateProductParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ProductID, validation.Required, validation.Min(int64(0))),
		validation.Field(&p.SellingPrice, validation.Min(0.0)),
		validation.Field(&p.CategoryID, validation.Min(int64(0))),
	)
}
