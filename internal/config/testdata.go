package config

// TestData holds the fixture values the purchase scenarios type and assert.
type TestData struct {
	// Product used in test scenarios
	ProductName string       `mapstructure:"product_name"`
	Checkout    CheckoutInfo `mapstructure:"checkout"`
	BaseURL     string       `mapstructure:"base_url"`
	// Error banner expected for the locked-out persona
	LockedUserError string `mapstructure:"locked_user_error"`

	SiteLandmark      string `mapstructure:"site_landmark"`
	InventoryLandmark string `mapstructure:"inventory_landmark"`
	CompletionText    string `mapstructure:"completion_text"`
}

// CheckoutInfo is the customer information entered during checkout.
type CheckoutInfo struct {
	FirstName  string `mapstructure:"first_name"`
	LastName   string `mapstructure:"last_name"`
	PostalCode string `mapstructure:"postal_code"`
}

// DefaultTestData returns the built-in fixture. It matches the testdata
// section of the embedded default configuration.
func DefaultTestData() TestData {
	return TestData{
		ProductName: "Sauce Labs Backpack",
		Checkout: CheckoutInfo{
			FirstName:  "John",
			LastName:   "Doe",
			PostalCode: "10000",
		},
		BaseURL:           "https://www.saucedemo.com/",
		LockedUserError:   "Epic sadface: Username and password x",
		SiteLandmark:      "Swag Labs",
		InventoryLandmark: "Products",
		CompletionText:    "Thank you for your order!",
	}
}
