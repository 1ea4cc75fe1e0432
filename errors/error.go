package errors

import (
	stderr "errors"
	"fmt"

	"github.com/oasislabs/quorum-functions/log"
)

// Err is the error returned by the components of the service. Every
// error can be logged and carries an ErrorCode
type Err interface {
	Error() string
	log.Loggable
	Code() ErrorCode
}

var (
	ErrInternalError = ErrorCode{
		category: InternalError,
		code:     1000,
		desc:     "Internal Error. Please check the status of the service.",
	}

	ErrSignatureRecovery = ErrorCode{
		category: InternalError,
		code:     1001,
		desc:     "Signature returned by the key service does not match the signer address.",
	}

	ErrEncodeArguments = ErrorCode{
		category: InternalError,
		code:     1002,
		desc:     "Failed to encode the contract call.",
	}

	ErrRenderResult = ErrorCode{
		category: InternalError,
		code:     1003,
		desc:     "Failed to render the call result.",
	}

	ErrMissingContractOrFunction = ErrorCode{
		category: InputError,
		code:     2001,
		desc:     "You must supply a contract address and function name",
	}

	ErrHttpContentLengthMissing = ErrorCode{
		category: InputError,
		code:     2002,
		desc:     "Content-length header missing from request.",
	}

	ErrHttpContentLengthLimit = ErrorCode{
		category: InputError,
		code:     2003,
		desc:     "Content-length exceeds request limit.",
	}

	ErrHttpContentTypeApplicationJson = ErrorCode{
		category: InputError,
		code:     2004,
		desc:     "Content-type should be application/json.",
	}

	ErrDeserializeJSON = ErrorCode{
		category: InputError,
		code:     2005,
		desc:     "Failed to deserialize body as JSON.",
	}

	ErrInvalidAddress = ErrorCode{
		category: InputError,
		code:     2006,
		desc:     "Provided invalid address.",
	}

	ErrUnknownFunction = ErrorCode{
		category: InputError,
		code:     2007,
		desc:     "The contract interface does not define the requested function.",
	}

	ErrInvalidArguments = ErrorCode{
		category: InputError,
		code:     2008,
		desc:     "The input parameters do not match the function arguments.",
	}

	ErrPrivateForNotSupported = ErrorCode{
		category: ConfigurationError,
		code:     3001,
		desc:     "Private transactions require a privacy manager to be configured.",
	}

	ErrConfiguration = ErrorCode{
		category: ConfigurationError,
		code:     3002,
		desc:     "The service is misconfigured. Please contact the operator.",
	}

	ErrArtifactFetch = ErrorCode{
		category: ArtifactError,
		code:     4001,
		desc:     "Failed to retrieve the contract artifact.",
	}

	ErrArtifactFormat = ErrorCode{
		category: ArtifactError,
		code:     4002,
		desc:     "The contract artifact is malformed.",
	}

	ErrArtifactMissingBytecode = ErrorCode{
		category: ArtifactError,
		code:     4003,
		desc:     "The contract artifact does not contain deployment bytecode.",
	}

	ErrAuthorization = ErrorCode{
		category: AuthorizationError,
		code:     5001,
		desc:     "The signer is not authorized to use the key.",
	}

	ErrTransientUnavailable = ErrorCode{
		category: TransientError,
		code:     6001,
		desc:     "A remote dependency is temporarily unavailable. Please retry later.",
	}

	ErrSubmission = ErrorCode{
		category: ChainError,
		code:     7001,
		desc:     "There was an issue submitting the transaction",
	}

	ErrTransactionReverted = ErrorCode{
		category: ChainError,
		code:     7002,
		desc:     "The transaction was included but its execution failed.",
	}

	ErrCallReverted = ErrorCode{
		category: ChainError,
		code:     7003,
		desc:     "The node rejected the call.",
	}

	ErrDecodeOutput = ErrorCode{
		category: ChainError,
		code:     7004,
		desc:     "Failed to decode the value returned by the call.",
	}

	ErrAPINotImplemented = ErrorCode{
		category: NotImplemented,
		code:     8001,
		desc:     "API not Implemented.",
	}
)

// Category groups error codes by who can act on them. The HTTP layer
// derives the status code of a response from it
type Category string

const (
	// InternalError is an unexpected failure. Only the operator can
	// act on it
	InternalError Category = "InternalError"

	// InputError is a request that is malformed or does not match the
	// contract interface
	InputError Category = "InputError"

	// ConfigurationError is a missing or invalid setting of the service
	ConfigurationError Category = "ConfigurationError"

	// ArtifactError is a contract artifact that cannot be fetched
	// or parsed
	ArtifactError Category = "ArtifactError"

	// AuthorizationError is a key service denying access to the key.
	// It is never retried
	AuthorizationError Category = "AuthorizationError"

	// TransientError is a dependency that is momentarily unreachable
	TransientError Category = "TransientError"

	// ChainError is an operation rejected by the chain node
	ChainError Category = "ChainError"

	NotImplemented Category = "Not Implemented"
)

// ErrorCode identifies a kind of failure and the description that
// is returned to the client for it
type ErrorCode struct {
	category Category
	code     int
	desc     string
}

func (e ErrorCode) Category() Category { return e.category }
func (e ErrorCode) Code() int          { return e.code }
func (e ErrorCode) Desc() string       { return e.desc }

// Error pairs an ErrorCode with the error that caused it, which
// may be nil
type Error struct {
	Cause     error
	ErrorCode ErrorCode
}

// New creates an Error for code caused by cause
func New(code ErrorCode, cause error) Error {
	return Error{Cause: cause, ErrorCode: code}
}

func (e Error) Error() string {
	msg := fmt.Sprintf("[%d] error code %s with desc %s",
		e.ErrorCode.Code(), e.ErrorCode.Category(), e.ErrorCode.Desc())
	if e.Cause == nil {
		return msg
	}

	return fmt.Sprintf("%s with cause %s", msg, e.Cause)
}

func (e Error) Code() ErrorCode {
	return e.ErrorCode
}

func (e Error) Unwrap() error {
	return e.Cause
}

func (e Error) Log(fields log.Fields) {
	fields.Add("err", e.ErrorCode.Desc())
	fields.Add("errorCode", e.ErrorCode.Code())
	if e.Cause != nil {
		fields.Add("cause", e.Cause.Error())
	}
}

// IsCategory returns whether the first Err in the chain of err
// belongs to category
func IsCategory(err error, category Category) bool {
	var e Err
	return stderr.As(err, &e) && e.Code().Category() == category
}
