package transport

import (
	"encoding/json"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type AdminResponse struct {
	Admin bool `json:"admin"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SignupResponse struct {
	Message    string `json:"message"`
	InsertedID string `json:"insertedId"`
}

type CreateProductResponse struct {
	Message   string `json:"message"`
	ProductID string `json:"productId"`
}

type AddToCartResponse struct {
	Message string `json:"message"`
	ItemID  string `json:"itemId"`
}

// ProductPatch records which product fields a PUT body carried. Keys other
// than name, price and description are kept in Attributes.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Attributes  map[string]any
}

func (p *ProductPatch) UnmarshalJSON(data []byte) error {
	doc, err := models.DecodeDocument(data)
	if err != nil {
		return err
	}
	var out ProductPatch
	if v, ok, err := doc.TakeString("name"); err != nil {
		return err
	} else if ok {
		out.Name = &v
	}
	if v, ok, err := doc.TakeFloat("price"); err != nil {
		return err
	} else if ok {
		out.Price = &v
	}
	if v, ok, err := doc.TakeString("description"); err != nil {
		return err
	} else if ok {
		out.Description = &v
	}
	if out.Attributes, err = doc.Rest(); err != nil {
		return err
	}
	*p = out
	return nil
}

// AddToCartRequest accepts quantity either as a JSON number or as a string.
type AddToCartRequest struct {
	Email    string          `json:"email"`
	Quantity json.RawMessage `json:"quantity"`
}

// QuantityText returns the quantity as the text the client sent, or "" when
// it is missing or not a scalar.
func (r AddToCartRequest) QuantityText() string {
	raw := strings.TrimSpace(string(r.Quantity))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Quantity, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(r.Quantity, &n); err == nil {
		return n.String()
	}
	return ""
}
