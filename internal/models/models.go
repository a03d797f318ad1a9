package models

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID         string         `gorm:"primaryKey;size:36"`
	Email      string         `gorm:"uniqueIndex;not null"`
	Role       string         `gorm:"not null;default:member"`
	Attributes map[string]any `gorm:"type:text;serializer:json"`
	CreatedAt  time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) MarshalJSON() ([]byte, error) {
	return encodeDocument(u.Attributes,
		field{"_id", u.ID},
		field{"email", u.Email},
		field{"role", u.Role},
	)
}

func (u *User) UnmarshalJSON(data []byte) error {
	doc, err := DecodeDocument(data)
	if err != nil {
		return err
	}
	var out User
	if out.ID, _, err = doc.TakeString("_id"); err != nil {
		return err
	}
	if out.Email, _, err = doc.TakeString("email"); err != nil {
		return err
	}
	if out.Role, _, err = doc.TakeString("role"); err != nil {
		return err
	}
	if out.Attributes, err = doc.Rest(); err != nil {
		return err
	}
	*u = out
	return nil
}

// Product.Price is nil when the product was stored without a price.
type Product struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string
	NameFolded  string `gorm:"index"`
	Price       *float64
	Description string
	Attributes  map[string]any `gorm:"type:text;serializer:json"`
	CreatedAt   time.Time
}

// FoldName is the case-folded form of a product name used for search.
func FoldName(name string) string {
	return strings.ToLower(name)
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.NameFolded = FoldName(p.Name)
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	known := []field{
		{"_id", p.ID},
		{"name", p.Name},
		{"description", p.Description},
	}
	if p.Price != nil {
		known = append(known, field{"price", *p.Price})
	}
	return encodeDocument(p.Attributes, known...)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	doc, err := DecodeDocument(data)
	if err != nil {
		return err
	}
	var out Product
	if out.ID, _, err = doc.TakeString("_id"); err != nil {
		return err
	}
	if out.Name, _, err = doc.TakeString("name"); err != nil {
		return err
	}
	if price, ok, err := doc.TakeFloat("price"); err != nil {
		return err
	} else if ok {
		out.Price = &price
	}
	if out.Description, _, err = doc.TakeString("description"); err != nil {
		return err
	}
	if out.Attributes, err = doc.Rest(); err != nil {
		return err
	}
	*p = out
	return nil
}

// ProductSnapshot is the copy of a product embedded in a cart item. It is
// taken once at insert time and never refreshed.
type ProductSnapshot struct {
	ID          string
	Name        string
	Price       *float64
	Description string
	Attributes  map[string]any
}

func SnapshotOf(p Product) ProductSnapshot {
	return ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Price:       clonePrice(p.Price),
		Description: p.Description,
		Attributes:  CloneAttributes(p.Attributes),
	}
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s ProductSnapshot) MarshalJSON() ([]byte, error) {
	return s.asProduct().MarshalJSON()
}

func (s *ProductSnapshot) UnmarshalJSON(data []byte) error {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SnapshotOf(p)
	return nil
}

func (s ProductSnapshot) asProduct() Product {
	return Product{
		ID:          s.ID,
		Name:        s.Name,
		Price:       s.Price,
		Description: s.Description,
		Attributes:  s.Attributes,
	}
}

type CartItem struct {
	ID        string          `gorm:"primaryKey;size:36"                json:"_id"`
	Email     string          `gorm:"index;not null"                    json:"email"`
	ProductID string          `gorm:"index;not null"                    json:"productId"`
	Product   ProductSnapshot `gorm:"type:text;not null;serializer:json" json:"product"`
	Quantity  float64         `gorm:"not null"                          json:"quantity"`
	Seq       int64           `gorm:"index;not null"                    json:"-"`
	CreatedAt time.Time       `json:"-"`
}

var cartSeq struct {
	sync.Mutex
	last int64
}

// nextCartSeq is strictly increasing within the process and follows the wall
// clock, so it breaks created_at ties in insertion order.
func nextCartSeq() int64 {
	cartSeq.Lock()
	defer cartSeq.Unlock()
	n := time.Now().UnixNano()
	if n <= cartSeq.last {
		n = cartSeq.last + 1
	}
	cartSeq.last = n
	return n
}

// NewCartItem copies the product at the moment the item is created.
func NewCartItem(p Product, email string, quantity float64) CartItem {
	return CartItem{
		Email:     email,
		ProductID: p.ID,
		Product:   SnapshotOf(p),
		Quantity:  quantity,
	}
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Seq == 0 {
		c.Seq = nextCartSeq()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
