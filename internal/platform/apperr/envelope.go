package apperr

import "errors"

type ErrorBody struct {
	Code    Code   `json:"code"`
	Details string `json:"details"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

func OK(msg string, data any) Envelope {
	return Envelope{Success: true, Message: msg, Data: data}
}

// Fail はエラーをエンベロープに変換する。
// 内部エラー・不変条件違反は例外文言を漏らさず固定メッセージにする
func Fail(err error) Envelope {
	var api *APIError
	if errors.As(err, &api) && !IsInternal(err) {
		return Envelope{
			Message: api.Message,
			Error:   &ErrorBody{Code: api.Code, Details: api.Message},
		}
	}
	return Envelope{
		Message: genericMessage,
		Error:   &ErrorBody{Code: CodeSystem, Details: genericMessage},
	}
}
