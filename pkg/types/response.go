package types

// SuccessEnvelope wraps every successful remote cart service response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire shape of a remote failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed remote cart service response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
