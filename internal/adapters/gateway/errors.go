package gateway

import "fmt"

type GatewayError struct {
	Code       string
	Err        error
	Message    string
	StatusCode int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
