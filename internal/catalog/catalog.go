package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindService Kind = "service"
	KindPlan    Kind = "plan"
	KindPetBox  Kind = "petbox"
)

var ErrNotFound = errors.New("product not found")

//go:embed default.yaml
var defaultCatalog []byte

// Product is anything the storefront can put in a cart: shop items, care
// plans and PetBox subscriptions.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        Kind            `json:"kind"`
	Category    string          `json:"category,omitempty"`
	Type        string          `json:"type,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

type Catalog struct {
	products []Product
	byID     map[string]int
}

type catalogFile struct {
	Products []productRecord `yaml:"products"`
}

type productRecord struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Category    string `yaml:"category"`
	Type        string `yaml:"type"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// New builds a catalog. Ids must be unique and prices non-negative.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q: missing id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %q: duplicate id", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %q: negative price", p.ID)
		}
		if p.Kind == "" {
			p.Kind = KindProduct
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Parse reads a YAML catalog. Prices are decimal strings such as "79.90".
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]Product, 0, len(file.Products))
	for _, rec := range file.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(rec.Price))
		if err != nil {
			return nil, fmt.Errorf("product %q: price %q: %w", rec.ID, rec.Price, err)
		}
		products = append(products, Product{
			ID:          rec.ID,
			Name:        rec.Name,
			Kind:        Kind(rec.Kind),
			Category:    rec.Category,
			Type:        rec.Type,
			Price:       price,
			Description: rec.Description,
		})
	}
	return New(products)
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

func (c *Catalog) Lookup(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.products[i], nil
}

// All returns every product in file order.
func (c *Catalog) All() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) Len() int {
	return len(c.products)
}
