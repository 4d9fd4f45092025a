package dto

// CreateItemRequest is the body of POST /items. Multipart submissions carry
// the same fields as form values plus an optional image file.
type CreateItemRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required,max=1000"`
}

// UpdateItemRequest is the body of PUT /items/{id}.
type UpdateItemRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=1000"`
}

// ItemQuery mirrors supported listing filters.
type ItemQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
