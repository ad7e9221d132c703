package model

// BaseResponse is the uniform JSON envelope returned by every endpoint.
type BaseResponse struct {
	IsSuccess bool     `json:"isSuccess"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Data      any      `json:"data,omitempty"`
}

func Success(message string, data any) BaseResponse {
	return BaseResponse{IsSuccess: true, Message: message, Data: data}
}

func Failure(message string, errs ...string) BaseResponse {
	return BaseResponse{IsSuccess: false, Message: message, Errors: errs}
}
