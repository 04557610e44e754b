package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the checkout callback signature: an
// HMAC-SHA256 over "order_id|payment_id" with the key secret. The comparison
// is constant time.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	return verify([]byte(orderID+"|"+paymentID), signature, secret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against an
// HMAC-SHA256 over the raw request body with the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	return verify(body, signature, secret)
}

func verify(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
