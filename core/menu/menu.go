package menu

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/sheet"
)

const (
	defaultName     = "Unknown Item"
	defaultBenefits = "Delicious!"
	defaultImage    = "/static/images/veggie_burger_vegeta.jpg"
	imagesDir       = "/static/images/"
)

var ErrNotFound = errors.New("menu item not found")

var (
	colID       = []string{"id", "ItemID", "Item ID"}
	colName     = []string{"name", "ItemName", "Item Name"}
	colPrice    = []string{"price"}
	colBenefits = []string{"benefits", "description"}
	colImage    = []string{"image", "ImageURL", "Image URL", "imagePath"}
	colSoldOut  = []string{"soldOut", "Sold Out"}
)

type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Benefits string  `json:"benefits"`
	Image    string  `json:"image"`
	SoldOut  bool    `json:"soldOut"`
}

// NewItem contains information needed to add an Item to the menu.
type NewItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Benefits string  `json:"benefits"`
	Image    string  `json:"image"`
}

// UpdateSoldOut flips the availability of a menu item.
type UpdateSoldOut struct {
	ItemID  string `json:"itemId"`
	SoldOut *bool  `json:"soldOut"`
}

// Defaults is what the canteen serves while the Menu table is empty.
var Defaults = []Item{
	{ID: "item1", Name: "Veggie Burger", Price: 80, Benefits: "Rich in fiber and vitamins", Image: "/static/images/veggie_burger_vegeta.jpg"},
	{ID: "item2", Name: "Paneer Pizza Slice", Price: 100, Benefits: "Good source of calcium and protein", Image: "/static/images/pizza.jpg"},
	{ID: "item3", Name: "Fresh Fruit Salad", Price: 60, Benefits: "Packed with essential nutrients", Image: "/static/images/chilli_potato.jpg"},
	{ID: "item4", Name: "Veg Spring Rolls (6 pcs)", Price: 90, Benefits: "Healthy and delicious snack", Image: "/static/images/samosa.jpg"},
	{ID: "item5", Name: "Chocolate Milkshake", Price: 70, Benefits: "Energy booster!", Image: "/static/images/chocolate_milkshake.jpg"},
	{ID: "item6", Name: "Chai", Price: 30, Benefits: "Warm and refreshing Indian tea", Image: "/static/images/chai.jpg"},
	{ID: "item7", Name: "Coffee", Price: 40, Benefits: "Strong and aromatic coffee", Image: "/static/images/coffee.jpg"},
}

// ParsePrice reads prices written as "₹1,200.50", "80" or "80.0". Unreadable prices are 0.
func ParsePrice(raw string) float64 {
	raw = strings.NewReplacer("₹", "", ",", "", "Rs.", "", "Rs", "").Replace(raw)
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return price
}

// ImagePath makes relative image names servable from /static/images/.
func ImagePath(raw string) string {
	switch {
	case raw == "":
		return defaultImage
	case strings.HasPrefix(raw, "/"), strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "static/"):
		return "/" + raw
	case strings.HasPrefix(raw, "images/"):
		return "/static/" + raw
	}
	return imagesDir + raw
}

func itemFromRow(t *sheet.Table, i int) Item {
	clean := func(aliases ...string) string { return sheet.DeepClean(t.Value(i, aliases...)) }

	item := Item{
		ID:       clean(colID...),
		Name:     clean(colName...),
		Price:    ParsePrice(clean(colPrice...)),
		Benefits: clean(colBenefits...),
		Image:    ImagePath(clean(colImage...)),
		SoldOut:  sheet.ParseBool(t.Value(i, colSoldOut...)),
	}
	if item.ID == "" {
		item.ID = "item" + strconv.Itoa(i+1)
	}
	if item.Name == "" {
		item.Name = defaultName
	}
	if item.Benefits == "" {
		item.Benefits = defaultBenefits
	}
	return item
}

type Service struct {
	store sheet.Store
}

func NewService(store sheet.Store) *Service {
	return &Service{store: store}
}

// List returns the normalized menu, or Defaults while the Menu table has no rows.
func (svc *Service) List(ctx context.Context) ([]Item, error) {
	items, err := svc.Stored(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		items = make([]Item, len(Defaults))
		copy(items, Defaults)
	}
	return items, nil
}

// Stored returns the normalized rows of the Menu table, without falling back to Defaults.
func (svc *Service) Stored(ctx context.Context) ([]Item, error) {
	t, err := sheet.Load(ctx, svc.store, sheet.Menu)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		items = append(items, itemFromRow(t, i))
	}
	return items, nil
}

// Available returns the items that are not sold out.
func (svc *Service) Available(ctx context.Context) ([]Item, error) {
	items, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	available := items[:0]
	for _, item := range items {
		if !item.SoldOut {
			available = append(available, item)
		}
	}
	return available, nil
}

// FindByName looks an item up by name, ignoring case and surrounding whitespace.
func (svc *Service) FindByName(ctx context.Context, name string) (Item, error) {
	items, err := svc.List(ctx)
	if err != nil {
		return Item{}, err
	}
	if item, ok := Lookup(items, name); ok {
		return item, nil
	}
	return Item{}, ErrNotFound
}

// Lookup finds an item by name in an already loaded menu.
func Lookup(items []Item, name string) (Item, bool) {
	name = sheet.DeepClean(name)
	for _, item := range items {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return Item{}, false
}

// SetSoldOut writes TRUE/FALSE in the soldOut column of the item, adding the column when missing.
func (svc *Service) SetSoldOut(ctx context.Context, upd UpdateSoldOut) error {
	upd.ItemID = core.CleanString(upd.ItemID)
	if upd.ItemID == "" || upd.SoldOut == nil {
		return core.NewValidationError(errors.New("missing itemId or soldOut"))
	}

	unlock := sheet.Lock(sheet.Menu)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Menu)
	if err != nil {
		return err
	}
	if t.Column(colID...) < 0 {
		return errors.New("id column not found in menu table")
	}
	idx := t.Find(upd.ItemID, colID...)
	if idx < 0 {
		return ErrNotFound
	}

	col := t.Column(colSoldOut...)
	if col < 0 {
		if err = svc.store.Ensure(ctx, sheet.Menu, append(t.Header, colSoldOut[0])); err != nil {
			return errors.Wrap(err, "adding soldOut column")
		}
		col = len(t.Header)
	}
	return errors.Wrap(
		svc.store.UpdateCell(ctx, sheet.Menu, idx, col, sheet.FormatBool(*upd.SoldOut)),
		"updating soldOut",
	)
}

// Add appends an item to the menu with the next numeric id.
func (svc *Service) Add(ctx context.Context, ni NewItem) (Item, error) {
	ni.Name = sheet.DeepClean(ni.Name)
	if ni.Name == "" {
		return Item{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	if ni.Price < 0 {
		return Item{}, core.NewValidationError(nil, core.FieldError{Field: "price", Error: "price cannot be negative"})
	}

	unlock := sheet.Lock(sheet.Menu)
	defer unlock()

	t, err := sheet.Load(ctx, svc.store, sheet.Menu)
	if err != nil {
		return Item{}, err
	}
	if len(t.Header) == 0 {
		t.Header = sheet.Headers[sheet.Menu]
	}
	item := Item{
		ID:       sheet.NextID(t, colID...),
		Name:     ni.Name,
		Price:    ni.Price,
		Benefits: sheet.DeepClean(ni.Benefits),
		Image:    ni.Image,
	}
	row := t.Row(map[string]string{
		t.HeaderFor(colID...):       item.ID,
		t.HeaderFor(colName...):     item.Name,
		t.HeaderFor(colPrice...):    strconv.FormatFloat(item.Price, 'f', -1, 64),
		t.HeaderFor(colBenefits...): item.Benefits,
		t.HeaderFor(colImage...):    item.Image,
		t.HeaderFor(colSoldOut...):  sheet.FormatBool(false),
	})
	if err = svc.store.Append(ctx, sheet.Menu, row); err != nil {
		return Item{}, errors.Wrap(err, "saving menu item")
	}
	item.Image = ImagePath(item.Image)
	if item.Benefits == "" {
		item.Benefits = defaultBenefits
	}
	return item, nil
}
