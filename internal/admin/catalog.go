package admin

import (
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"gorm.io/gorm"
)

func NewItemView(db *gorm.DB) *ModelView[models.Item] {
	store := NewGormStore[models.Item](db)
	store.Preload = []string{"Addresses"}
	store.Order = "name"

	v := NewModelView[models.Item]("Item", "item", store)
	v.Columns = []Column[models.Item]{
		{Header: "Name", Value: func(i *models.Item) string { return i.Name }},
		{Header: "Addresses", Value: func(i *models.Item) string {
			streets := make([]string, len(i.Addresses))
			for n, a := range i.Addresses {
				streets[n] = a.Street
			}
			return strings.Join(streets, ", ")
		}},
	}
	v.Fields = []Field[models.Item]{
		StringField("name", "Name", func(i *models.Item) *string { return &i.Name }).
			Require().Max(50).UniqueOn("name"),
	}
	return v
}

func NewAddressView(db *gorm.DB) *ModelView[models.Address] {
	store := NewGormStore[models.Address](db)
	store.Preload = []string{"Item"}
	store.Order = "street"

	v := NewModelView[models.Address]("Address", "address", store)
	v.Columns = []Column[models.Address]{
		{Header: "Street", Value: func(a *models.Address) string { return a.Street }},
		{Header: "House", Value: func(a *models.Address) string { return optionalInt(a.House) }},
		{Header: "Front Door", Value: func(a *models.Address) string { return optionalInt(a.FrontDoor) }},
		{Header: "Apartment", Value: func(a *models.Address) string { return a.Apartment }},
		{Header: "Item", Value: func(a *models.Address) string {
			if a.Item == nil {
				return ""
			}
			return a.Item.String()
		}},
	}
	v.Fields = []Field[models.Address]{
		StringField("street", "Street", func(a *models.Address) *string { return &a.Street }).
			Require().Max(55).UniqueOn("street"),
		OptionalIntField("house", "House", func(a *models.Address) **int { return &a.House }),
		OptionalIntField("front_door", "Front Door", func(a *models.Address) **int { return &a.FrontDoor }),
		StringField("apartment", "Apartment", func(a *models.Address) *string { return &a.Apartment }).Max(5),
		itemField(db),
	}
	return v
}

func itemField(db *gorm.DB) Field[models.Address] {
	return Field[models.Address]{
		Name:  "item",
		Label: "Item",
		Type:  FieldSelect,
		Get: func(a *models.Address) []string {
			if a.ItemID == nil {
				return nil
			}
			return []string{strconv.FormatUint(uint64(*a.ItemID), 10)}
		},
		Set: func(a *models.Address, vals []string) error {
			ids, err := parseIDs(vals)
			if err != nil || len(ids) > 1 {
				return errInvalidChoice("Item")
			}
			// The preloaded Item would otherwise disagree with ItemID.
			a.Item = nil
			if len(ids) == 0 {
				a.ItemID = nil
				return nil
			}
			var count int64
			if err := db.Model(&models.Item{}).Where("id = ?", ids[0]).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errInvalidChoice("Item")
			}
			a.ItemID = &ids[0]
			return nil
		},
		Options: func() ([]Option, error) {
			var items []models.Item
			if err := db.Order("name").Find(&items).Error; err != nil {
				return nil, err
			}
			opts := []Option{{Value: "", Label: ""}}
			for _, i := range items {
				opts = append(opts, Option{Value: strconv.FormatUint(uint64(i.ID), 10), Label: i.String()})
			}
			return opts, nil
		},
	}
}

func optionalInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
