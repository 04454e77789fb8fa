package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio del motor de inventario.
var (
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidDecimal    = errors.New("valor decimal mal formado")
	ErrDivisionByZero    = errors.New("división por cero")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransfer   = errors.New("traslado inválido: bodega origen y destino son iguales")
	ErrOverRelease       = errors.New("la liberación excede la cantidad reservada")
	ErrBalanceNotFound   = errors.New("saldo no encontrado")
	ErrLockTimeout       = errors.New("tiempo de espera agotado al bloquear el saldo")
	ErrLockNotHeld       = errors.New("escritura de saldo sin bloqueo previo en la transacción")
	ErrImmutableEntry    = errors.New("los movimientos del libro mayor son inmutables")
	ErrPersistence       = errors.New("error de persistencia")
)

// InsufficientStockError detalla la cantidad disponible frente a la solicitada.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: disponible %s, solicitado %s",
		ErrInsufficientStock.Error(), e.Available.StringFixed(4), e.Requested.StringFixed(4))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError envuelve una falla del almacenamiento con la operación que la produjo.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence.Error(), e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPersistence) sin perder el error original.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NewPersistenceError construye un PersistenceError.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsRetryable indica si el caller puede reintentar la operación.
// Solo el timeout de bloqueo es reintentable; el resto son rechazos permanentes.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
