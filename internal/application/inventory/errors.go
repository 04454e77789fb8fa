package inventory

import (
	"errors"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// isBusinessRejection rechazos permanentes por regla de negocio (no son fallas técnicas).
func isBusinessRejection(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrOverRelease) ||
		errors.Is(err, domain.ErrBalanceNotFound) ||
		errors.Is(err, domain.ErrInvalidTransfer) ||
		errors.Is(err, domain.ErrInvalidInput)
}
