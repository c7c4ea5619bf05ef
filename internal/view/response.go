package view

// Response is the envelope of every JSON API answer.
type Response[T any] struct {
	Data    T           `json:"data"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Request interface{} `json:"request,omitempty"`
}

// ErrorResponse documents the failure shape of Response for swagger.
type ErrorResponse struct {
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Request interface{} `json:"request,omitempty"`
}

// CreateResponse wraps data, or err with the request that caused it and a
// human readable message.
func CreateResponse[T any](data T, err error, req interface{}, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Message: message,
		Request: req,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
