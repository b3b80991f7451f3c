package types

type SuccessEnvelope struct {
	Data any `json:"data"`
	// Banner carries a non-blocking notice, e.g. a cart that could not be restored.
	Banner string `json:"banner,omitempty"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
