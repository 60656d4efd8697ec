package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/errno"
	"eth-offline-signer/pkg/signer"
)

// ErrCanceled 调用方的 context 被取消或超时。
// 提交时出现该错误意味着节点端结果未知，交易可能已经进入交易池。
var ErrCanceled = errors.New("operation canceled")

// SubmitError 广播失败。Err 保留节点返回的原始错误信息，Hash 是本地计算的交易哈希。
type SubmitError struct {
	Hash common.Hash
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit transaction %s: %v", e.Hash.Hex(), e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ConfirmError 轮询回执时 RPC 失败
type ConfirmError struct {
	Hash common.Hash
	Err  error
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("confirm transaction %s: %v", e.Hash.Hex(), e.Err)
}

func (e *ConfirmError) Unwrap() error {
	return e.Err
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

// 各类节点实现对重复广播的报错
var alreadyKnownMessages = []string{
	"already known",
	"known transaction",
	"already imported",
	"transaction already exists",
}

// IsAlreadyKnown 判断是否是“交易已在交易池中”一类的拒绝 (重复广播同一笔交易)
func IsAlreadyKnown(err error) bool {
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) || errors.Is(err, ErrCanceled) {
		return false
	}
	msg := strings.ToLower(submitErr.Err.Error())
	for _, m := range alreadyKnownMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// ToErrno 把流水线上的错误映射为带错误码的错误，保留原因链
func ToErrno(err error) error {
	if err == nil {
		return nil
	}

	var (
		signErr    *signer.SignError
		decodeErr  *envelope.DecodeError
		submitErr  *SubmitError
		confirmErr *ConfirmError
	)
	switch {
	case errors.Is(err, ErrCanceled):
		return errno.ErrCanceled.WithCause(err)
	case errors.As(err, &signErr):
		return errno.ErrSign.WithCause(err)
	case errors.Is(err, envelope.ErrVariantMismatch):
		return errno.ErrVariantMismatch.WithCause(err)
	case errors.Is(err, envelope.ErrUnsupported):
		return errno.ErrUnsupportedTx.WithCause(err)
	case errors.As(err, &decodeErr):
		return errno.ErrDecode.WithCause(err)
	case IsAlreadyKnown(err):
		return errno.ErrAlreadyKnown.WithCause(err)
	case errors.As(err, &submitErr):
		return errno.ErrSubmit.WithCause(err)
	case errors.As(err, &confirmErr):
		return errno.ErrConfirm.WithCause(err)
	default:
		return err
	}
}
