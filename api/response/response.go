package response

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Message string `json:"message" example:"There is no message with such id"`
}

// DataResponse тело успешного ответа с данными
type DataResponse struct {
	Message string `json:"message,omitempty" example:"Message was created successfully"`
	Data    any    `json:"data,omitempty"`
}

// TokenResponse возвращается при входе и смене пароля
type TokenResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
}
