package model

// Standard error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeSellerNotFound     = "SELLER_NOT_FOUND"
	ErrCodeProfileCreation    = "PROFILE_CREATION_FAILED"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Messages are shown to the user as-is.
var (
	ErrInvalidCredentials = NewDomainError(ErrCodeInvalidCredentials, "E-posta veya şifre hatalı.")
	ErrNotAuthenticated   = NewDomainError(ErrCodeNotAuthenticated, "Bu işlem için mağaza girişi gerekli.")
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Ürün bulunamadı.")
	ErrSellerNotFound     = NewDomainError(ErrCodeSellerNotFound, "Mağaza profili bulunamadı.")
	ErrProfileCreation    = NewDomainError(ErrCodeProfileCreation, "Hesap oluşturuldu ancak mağaza profili kaydedilemedi. Giriş yaparak profilinizi tamamlayın.")
)
