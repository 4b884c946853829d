package commands

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeGo           Type = "go"
	TypeFilter       Type = "filter"
	TypeClearFilters Type = "clear-filters"
	TypeNotify       Type = "notify"
	TypeRead         Type = "read"
	TypeDismiss      Type = "dismiss"
	TypeLogout       Type = "logout"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type GoArgs struct {
	Path string
}

type FilterArgs struct {
	Pairs map[string]string
}

type NotifyArgs struct {
	Kind    string
	Message string
}

// ReadArgs targets one notification by id prefix, or all of them.
type ReadArgs struct {
	Target string
	All    bool
}

type DismissArgs struct {
	Target string
}

type Command struct {
	Type    Type
	Raw     string
	Go      *GoArgs
	Filter  *FilterArgs
	Notify  *NotifyArgs
	Read    *ReadArgs
	Dismiss *DismissArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeGo:
		return parseGo(input, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeClearFilters:
		return Command{Type: TypeClearFilters, Raw: input}, nil
	case TypeNotify:
		return parseNotify(input, args)
	case TypeRead:
		return parseRead(input, args)
	case TypeDismiss:
		return parseDismiss(input, args)
	case TypeLogout:
		return Command{Type: TypeLogout, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseGo(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "go requires exactly one path"}
	}
	return Command{Type: TypeGo, Raw: raw, Go: &GoArgs{Path: args[0]}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires key=value pairs"}
	}
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.TrimSpace(value) == "" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("malformed filter %q, want key=value", arg)}
		}
		pairs[key] = value
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Pairs: pairs}}, nil
}

func parseNotify(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "notify requires a type and a message"}
	}
	return Command{Type: TypeNotify, Raw: raw, Notify: &NotifyArgs{Kind: strings.ToLower(args[0]), Message: strings.Join(args[1:], " ")}}, nil
}

func parseRead(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "read requires an id prefix or all"}
	}
	if strings.EqualFold(args[0], "all") {
		return Command{Type: TypeRead, Raw: raw, Read: &ReadArgs{All: true}}, nil
	}
	return Command{Type: TypeRead, Raw: raw, Read: &ReadArgs{Target: args[0]}}, nil
}

func parseDismiss(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "dismiss requires an id prefix"}
	}
	return Command{Type: TypeDismiss, Raw: raw, Dismiss: &DismissArgs{Target: args[0]}}, nil
}
