package dto

// Res is the generic error envelope used by the middleware and handlers.
type Res struct {
	ResponseCode    string `json:"response_code"`
	ResponseMessage string `json:"response_message"`
}
