package apperr

import "fmt"

// AppError - istemciye sabit bir hata kodu ile dönen uygulama hatası.
// main'deki merkezi error handler bunu {"error": msg, "code": code}
// olarak serialize eder.
type AppError struct {
	Status  int    // HTTP durum kodu
	Code    string // sabit, makine okunur kod (ör: "DuplicateSubmission")
	Message string // kullanıcıya gösterilecek mesaj
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}
