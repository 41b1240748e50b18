package domain

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId"`
	Category    string  `json:"category"`
	BrandID     string  `json:"brandId"`
	Brand       string  `json:"brand"`
	Rating      float64 `json:"rating"`
	IsNew       bool    `json:"isNew"`
	IsSale      bool    `json:"isSale"`
	Stock       *int64  `json:"stock,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductInput is what admin forms submit. Category and brand are names, not ids.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Price       int64   `json:"price" validate:"gte=0"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	IsNew       bool    `json:"isNew"`
	IsSale      bool    `json:"isSale"`
	Stock       *int64  `json:"stock,omitempty"`
}

type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *int64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Image       *string  `json:"image,omitempty"`
	Description *string  `json:"description,omitempty"`
	CategoryID  *string  `json:"categoryId,omitempty"`
	Category    *string  `json:"category,omitempty"`
	BrandID     *string  `json:"brandId,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	IsNew       *bool    `json:"isNew,omitempty"`
	IsSale      *bool    `json:"isSale,omitempty"`
	Stock       *int64   `json:"stock,omitempty"`
}

func (p Product) Apply(patch ProductPatch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.BrandID != nil {
		p.BrandID = *patch.BrandID
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.IsNew != nil {
		p.IsNew = *patch.IsNew
	}
	if patch.IsSale != nil {
		p.IsSale = *patch.IsSale
	}
	if patch.Stock != nil {
		stock := *patch.Stock
		p.Stock = &stock
	}
	return p
}

// Clone returns a copy that shares no pointers with p.
func (p Product) Clone() Product {
	if p.Stock != nil {
		stock := *p.Stock
		p.Stock = &stock
	}
	return p
}
