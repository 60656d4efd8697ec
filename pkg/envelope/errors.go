package envelope

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// 解码失败的种类。DecodeError 总是包装其中之一，可用 errors.Is 判断。
var (
	ErrTruncated        = errors.New("envelope truncated")
	ErrTrailingBytes    = errors.New("trailing bytes after envelope")
	ErrVariantMismatch  = errors.New("envelope type does not match requested variant")
	ErrMalformed        = errors.New("malformed envelope")
	ErrInvalidHex       = errors.New("invalid hex encoding")
	ErrFieldCount       = errors.New("wrong number of envelope fields")
	ErrNonCanonical     = errors.New("non-canonical integer encoding")
	ErrFieldOverflow    = errors.New("field exceeds its maximum width")
	ErrInvalidSignature = errors.New("invalid signature values")
	ErrUnsupported      = errors.New("unsupported envelope content")
)

// DecodeError 信封解码错误。解码失败一律是致命的，不会退化成“尽量解析”。
type DecodeError struct {
	Kind   error  // 上面的哨兵错误之一
	Field  string // 出错的字段名，可能为空
	Detail error  // 底层原因，可能为空
}

func (e *DecodeError) Error() string {
	msg := "decode envelope: " + e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Detail == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Detail}
}

func newDecodeError(kind error, field string, detail error) *DecodeError {
	return &DecodeError{Kind: kind, Field: field, Detail: detail}
}

// classify 把 rlp 包的底层错误映射到解码错误种类
func classify(field string, err error) *DecodeError {
	switch {
	case errors.Is(err, rlp.ErrCanonInt), errors.Is(err, rlp.ErrCanonSize):
		return newDecodeError(ErrNonCanonical, field, err)
	case errors.Is(err, rlp.ErrValueTooLarge), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return newDecodeError(ErrTruncated, field, err)
	case errors.Is(err, rlp.ErrMoreThanOneValue):
		return newDecodeError(ErrTrailingBytes, field, err)
	default:
		return newDecodeError(ErrMalformed, field, err)
	}
}
