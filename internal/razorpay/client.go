package razorpay

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Client wraps the razorpay SDK behind the small surface checkout needs.
type Client struct {
	api *razorpay.Client
}

func NewClient(keyID, keySecret string) *Client {
	return &Client{api: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder registers an order with the gateway and returns its id.
// Amount is in minor units (paise).
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: response missing id")
	}
	return id, nil
}
