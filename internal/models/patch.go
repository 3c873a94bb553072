package models

// Patch types carry one optional field per updatable attribute. A nil field means
// "leave as is"; Apply copies only the fields that were sent.

type ProductPatch struct {
	Name         *string  `json:"name"`
	Unit         *string  `json:"unit"`
	Quantity     *float64 `json:"quantity"`
	PricePerGram *float64 `json:"pricePerGram"`
	MinLevel     *float64 `json:"minLevel"`
	SupplierID   *string  `json:"supplierId"`
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Unit == nil && p.Quantity == nil &&
		p.PricePerGram == nil && p.MinLevel == nil && p.SupplierID == nil
}

func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Unit != nil {
		dst.Unit = NormalizeUnit(*p.Unit)
	}
	if p.Quantity != nil {
		dst.Quantity = *p.Quantity
	}
	if p.PricePerGram != nil {
		v := *p.PricePerGram
		dst.PricePerGram = &v
	}
	if p.MinLevel != nil {
		v := *p.MinLevel
		dst.MinLevel = &v
	}
	if p.SupplierID != nil {
		if *p.SupplierID == "" {
			dst.SupplierID = nil
		} else {
			v := *p.SupplierID
			dst.SupplierID = &v
		}
		dst.Supplier = nil
	}
}

// IngredientInput is an ingredient line as sent by clients
type IngredientInput struct {
	ProductID string  `json:"productId"`
	Amount    float64 `json:"amount"`
}

type RecipePatch struct {
	Name         *string `json:"name"`
	ServingSize  *int    `json:"servingSize"`
	Instructions *string `json:"instructions"`
	// Ingredients, when non-nil, replaces the whole ingredient list.
	Ingredients *[]IngredientInput `json:"ingredients"`
}

// Apply merges scalar fields. Ingredient replacement is done by the caller
// because it needs a transaction.
func (p RecipePatch) Apply(dst *Recipe) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.ServingSize != nil {
		dst.ServingSize = *p.ServingSize
	}
	if p.Instructions != nil {
		dst.Instructions = *p.Instructions
	}
}

type SupplierPatch struct {
	Name    *string `json:"name"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (p SupplierPatch) Apply(dst *Supplier) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Contact != nil {
		dst.Contact = *p.Contact
	}
	if p.Email != nil {
		dst.Email = *p.Email
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Address != nil {
		dst.Address = *p.Address
	}
}
