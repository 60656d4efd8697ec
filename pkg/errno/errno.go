package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage 替换提示信息，错误码不变
func (e Errno) WithMessage(msg string) Errno {
	e.Message = msg
	return e
}

// WithCause 返回带底层原因的错误，Decode 时使用 Errno 的 Code，消息取完整的原因链
func (e Errno) WithCause(cause error) error {
	return &withCause{errno: e, cause: cause}
}

type withCause struct {
	errno Errno
	cause error
}

func (w *withCause) Error() string {
	return w.errno.Message + ": " + w.cause.Error()
}

func (w *withCause) Unwrap() []error {
	return []error{w.errno, w.cause}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var wrapped *withCause
	if errors.As(err, &wrapped) {
		return wrapped.errno.Code, err.Error()
	}

	var ptr *Errno
	if errors.As(err, &ptr) {
		return ptr.Code, ptr.Message
	}
	var val Errno
	if errors.As(err, &val) {
		return val.Code, val.Message
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrInvalidArgument  = Errno{Code: 10003, Message: "Invalid argument"}
)

// Transaction Errors (20000+)
var (
	ErrSign            = Errno{Code: 20101, Message: "Signing failed"}
	ErrDecode          = Errno{Code: 20201, Message: "Invalid transaction envelope"}
	ErrVariantMismatch = Errno{Code: 20202, Message: "Envelope type does not match requested type"}
	ErrUnsupportedTx   = Errno{Code: 20203, Message: "Unsupported transaction content"}
	ErrSubmit          = Errno{Code: 20301, Message: "Node rejected transaction"}
	ErrAlreadyKnown    = Errno{Code: 20302, Message: "Transaction already known"}
	ErrConfirm         = Errno{Code: 20401, Message: "Receipt query failed"}
	ErrCanceled        = Errno{Code: 20402, Message: "Operation canceled or timed out"}
	ErrRPCUnavailable  = Errno{Code: 20501, Message: "RPC endpoint unavailable"}
)
