package catalog

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dynfilter/internal/schema"
)

// fixtureFile is the YAML layout read by LoadFixtures. Every member is
// written as text and converted with the same rules as condition values:
//
//	products:
//	  - Id: 0b9e6f0e-8a53-4f57-9bd2-7f0d1c1e8a01
//	    Name: Snickers
//	    Description: null
//	    Price: "1.50"
//	    IsInStock: true
//	    IsForSale: false
//	    ExpireDate: 2030-01-01T00:00:00Z
//	    Category: Candy
type fixtureFile struct {
	Products []map[string]*string `yaml:"products"`
}

// LoadFixtures decodes products from YAML. Members left out keep their
// zero value; unknown members are an error.
func LoadFixtures(r io.Reader) ([]Product, error) {
	var file fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	return FromText(file.Products)
}

// FromText builds products from member name to text maps, converting each
// value like a condition literal.
func FromText(entries []map[string]*string) ([]Product, error) {
	products := make([]Product, 0, len(entries))
	for i, entry := range entries {
		var p Product
		if err := fromText(ProductSchema, &p, entry); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func fromText(s *schema.Schema, record any, values map[string]*string) error {
	for name, text := range values {
		f, err := s.Field(name)
		if err != nil {
			return err
		}
		v, err := f.Convert(text)
		if err != nil {
			return err
		}
		if err := f.Set(record, v); err != nil {
			return err
		}
	}
	return nil
}

var (
	brands       = []string{"Snickers", "Mars", "Twix", "Bounty"}
	descriptions = []string{"chocolate bar", "limited edition", "family pack"}
)

// Generate returns n pseudo-random products drawn from rng, expiring 1 to
// 20 days after now. The same seed always yields the same products.
func Generate(rng *rand.Rand, n int, now time.Time) []Product {
	products := make([]Product, n)
	for i := range products {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			panic(err) // rand.Rand.Read never fails
		}
		p := Product{
			Id:         id,
			Name:       fmt.Sprintf("%s %s", brands[rng.Intn(len(brands))], id.String()[:8]),
			Price:      decimal.New(rng.Int63n(10000)+1, -2),
			IsInStock:  rng.Intn(2) == 1,
			IsForSale:  rng.Intn(2) == 1,
			ExpireDate: now.Add(time.Duration(rng.Intn(20)+1)*24*time.Hour + time.Duration(rng.Int63n(int64(24*time.Hour)))).UTC().Truncate(time.Second),
			Category:   Category(rng.Intn(4) + 1),
		}
		if k := rng.Intn(len(descriptions) + 1); k < len(descriptions) {
			d := descriptions[k]
			p.Description = &d
		}
		products[i] = p
	}
	return products
}
