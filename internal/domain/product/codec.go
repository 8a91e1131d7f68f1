package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p as a JSON object using the catalog field names
// (id, title, price, description, category, image, rating).
func Encode(e *jx.Encoder, p Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image")
	e.Str(p.Image)
	if p.Rating != nil {
		e.FieldStart("rating")
		e.ObjStart()
		e.FieldStart("rate")
		e.Num(jx.Num(p.Rating.Rate.String()))
		e.FieldStart("count")
		e.Int(p.Rating.Count)
		e.ObjEnd()
	}
	e.ObjEnd()
}

// Decode reads a product JSON object. Unknown fields are skipped.
func Decode(d *jx.Decoder) (Product, error) {
	var (
		p     Product
		hasID bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
			hasID = true
		case "title":
			p.Title, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "description":
			p.Description, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "image":
			p.Image, err = d.Str()
		case "rating":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p.Rating, err = decodeRating(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	if !hasID {
		return Product{}, errors.New("product id is missing")
	}
	if p.Price.IsNegative() {
		return Product{}, errors.Errorf("product %d has negative price %s", p.ID, p.Price)
	}
	return p, nil
}

func decodeRating(d *jx.Decoder) (*Rating, error) {
	var r Rating
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "rate":
			r.Rate, err = decodeDecimal(d)
		case "count":
			var n int64
			n, err = d.Int64()
			r.Count = int(n)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if r.Count < 0 {
		return nil, errors.Errorf("negative rating count %d", r.Count)
	}
	return &r, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
