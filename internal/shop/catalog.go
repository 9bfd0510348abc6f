// Package shop models the Swag Labs store: its catalogue, accounts, cart and
// checkout rules. The simulated backend and the demo site both render it.
package shop

import "strings"

// Product is an item for sale.
type Product struct {
	ID          int
	Name        string
	Description string
	Price       float64
}

var catalog = []Product{
	{ID: 4, Name: "Sauce Labs Backpack", Price: 29.99,
		Description: "carry.allTheThings() with the sleek, streamlined Sly Pack that melds uncompromising style with unequaled laptop and tablet protection."},
	{ID: 0, Name: "Sauce Labs Bike Light", Price: 9.99,
		Description: "A red light isn't the desired state in testing but it sure helps when riding your bike at night. Water-resistant with 3 lighting modes, 1 AAA battery included."},
	{ID: 1, Name: "Sauce Labs Bolt T-Shirt", Price: 15.99,
		Description: "Get your testing superhero on with the Sauce Labs bolt T-shirt. From American Apparel, 100% ringspun combed cotton, heather gray with red bolt."},
	{ID: 5, Name: "Sauce Labs Fleece Jacket", Price: 49.99,
		Description: "It's not every day that you come across a midweight quarter-zip fleece jacket capable of handling everything from a relaxing day outdoors to a busy day at the office."},
	{ID: 2, Name: "Sauce Labs Onesie", Price: 7.99,
		Description: "Rib snap infant onesie for the junior automation engineer in development. Reinforced 3-snap bottom closure, two-needle hemmed sleeved and bottom won't unravel."},
	{ID: 3, Name: "Test.allTheThings() T-Shirt (Red)", Price: 15.99,
		Description: "This classic Sauce Labs t-shirt is perfect to wear when cozying up to your keyboard to automate a few tests. Super-soft and comfy ringspun combed cotton."},
}

// Catalog returns the products in display order.
func Catalog() []Product {
	out := make([]Product, len(catalog))
	copy(out, catalog)
	return out
}

// ProductByID looks a product up by id.
func ProductByID(id int) (Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ProductByName looks a product up by name, ignoring case.
func ProductByName(name string) (Product, bool) {
	for _, p := range catalog {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Product{}, false
}
