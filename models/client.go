package models

import "time"

// Client is a customer billed by an owner.
type Client struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	State     *string   `json:"state"`
	Zip       *string   `json:"zip"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Included on single-client reads
	Invoices []Invoice `json:"invoices,omitempty"`
}

// ClientInput is used for creating/updating clients.
type ClientInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,email,max=320"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,max=100"`
	Zip     *string `json:"zip" validate:"omitempty,max=20"`
}

func (c *ClientInput) Validate() error {
	return checkStruct(c)
}

// Apply copies the input onto c.
func (c *ClientInput) Apply(client *Client) {
	client.Name = c.Name
	client.Email = c.Email
	client.Phone = c.Phone
	client.Address = c.Address
	client.City = c.City
	client.State = c.State
	client.Zip = c.Zip
}
