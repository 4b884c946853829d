package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Go           func(GoArgs) (Result, error)
	Filter       func(FilterArgs) (Result, error)
	ClearFilters func() (Result, error)
	Notify       func(NotifyArgs) (Result, error)
	Read         func(ReadArgs) (Result, error)
	Dismiss      func(DismissArgs) (Result, error)
	Logout       func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeGo:
		if handlers.Go == nil {
			return Result{}, missing("go")
		}
		return handlers.Go(*cmd.Go)
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, missing("filter")
		}
		return handlers.Filter(*cmd.Filter)
	case TypeClearFilters:
		if handlers.ClearFilters == nil {
			return Result{}, missing("clear-filters")
		}
		return handlers.ClearFilters()
	case TypeNotify:
		if handlers.Notify == nil {
			return Result{}, missing("notify")
		}
		return handlers.Notify(*cmd.Notify)
	case TypeRead:
		if handlers.Read == nil {
			return Result{}, missing("read")
		}
		return handlers.Read(*cmd.Read)
	case TypeDismiss:
		if handlers.Dismiss == nil {
			return Result{}, missing("dismiss")
		}
		return handlers.Dismiss(*cmd.Dismiss)
	case TypeLogout:
		if handlers.Logout == nil {
			return Result{}, missing("logout")
		}
		return handlers.Logout()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}
