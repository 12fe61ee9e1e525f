package types

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}

type CreateCategoryParams struct {
	Name string `json:"category_name"`
}

func (p CreateCategoryParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	)
}
