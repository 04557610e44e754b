package service

import "errors"

var (
	ErrValidation   = errors.New("validation")    // 400
	ErrNotFound     = errors.New("not found")     // 404, includes ownership-hidden results
	ErrVerification = errors.New("verification")  // 400, terminal for the payment attempt
	ErrGateway      = errors.New("gateway")       // 502, retryable
	ErrRateLimited  = errors.New("rate limited")  // 429
)
