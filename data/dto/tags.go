package dto

// CreateTagRequestBody defines the request body for CreateTag service.
type CreateTagRequestBody struct {
	Name  string `json:"name" validate:"required,max=36"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateTagRequestBody defines the request body for UpdateTag service.
type UpdateTagRequestBody struct {
	Name  *string `json:"name" validate:"omitempty,max=36"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}
