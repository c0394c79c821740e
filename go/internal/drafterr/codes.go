package drafterr

import "connectrpc.com/connect"

// Code is a machine-readable error kind.
type Code string

const (
	CodeConfiguration      Code = "CONFIGURATION"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodePlayerAlreadyTaken Code = "PLAYER_ALREADY_TAKEN"
	CodeIneligiblePlayer   Code = "INELIGIBLE_PLAYER"
	CodeStaleTimer         Code = "STALE_TIMER"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeConflict           Code = "CONFLICT"
	CodeUnknown            Code = "UNKNOWN"
)

// Recoverable reports whether the caller may fix its input or wait for a state change and retry.
func (c Code) Recoverable() bool {
	switch c {
	case CodeInvalidState, CodeNotYourTurn, CodePlayerAlreadyTaken, CodeIneligiblePlayer,
		CodeInvalidArgument, CodeConflict:
		return true
	default:
		return false
	}
}

// ConnectCode maps the code to an RPC status code.
func (c Code) ConnectCode() connect.Code {
	switch c {
	case CodeConfiguration, CodeInvalidArgument:
		return connect.CodeInvalidArgument
	case CodeInvalidState, CodeNotYourTurn, CodeIneligiblePlayer:
		return connect.CodeFailedPrecondition
	case CodePlayerAlreadyTaken, CodeConflict:
		return connect.CodeAlreadyExists
	case CodeNotFound:
		return connect.CodeNotFound
	case CodeStaleTimer:
		return connect.CodeAborted
	default:
		return connect.CodeInternal
	}
}

// HTTPStatus maps the code to a REST status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeConfiguration, CodeInvalidArgument:
		return 400
	case CodeNotFound:
		return 404
	case CodeInvalidState, CodeNotYourTurn, CodePlayerAlreadyTaken, CodeConflict, CodeStaleTimer:
		return 409
	case CodeIneligiblePlayer:
		return 422
	default:
		return 500
	}
}
