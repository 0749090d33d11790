package model

import "errors"

// Виды ошибок бизнес-правил. Проверяются через errors.Is.
var (
	ErrCannotBeScheduled   = errors.New("cannot be scheduled")
	ErrCannotBeUnscheduled = errors.New("cannot be unscheduled")
	ErrInvalidState        = errors.New("invalid state")
	ErrNotYetTaken         = errors.New("not yet taken")

	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrPurchaseFailed = errors.New("purchase failed")
)

// Коды ошибок, которые показывает клиентский слой
const (
	CodeAlreadyScheduled = "E_ALREADY_SCHEDULED"
	CodeTypeMismatch     = "E_TYPE_MISMATCH"
	CodeSlotFull         = "E_SLOT_FULL"
	CodeInactive         = "E_INACTIVE"
	CodeNotScheduled     = "E_NOT_SCHEDULED"
	CodeFullyUsed        = "E_FULLY_USED"
	CodeClassNotFound    = "E_CLASS_NOT_FOUND"
	CodeInvalidState     = "E_INVALID_STATE"
	CodeNotYetTaken      = "E_NOT_YET_TAKEN"
)

// RuleError описывает нарушение бизнес-правила. Не ретраится.
type RuleError struct {
	Err     error
	Code    string
	Message string
}

func NewRuleError(kind error, code, message string) *RuleError {
	return &RuleError{Err: kind, Code: code, Message: message}
}

func (e *RuleError) Error() string {
	return e.Err.Error() + ": " + e.Code + ": " + e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// CodeOf достаёт код из цепочки ошибок, пустая строка если это не RuleError
func CodeOf(err error) string {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Code
	}
	return ""
}
