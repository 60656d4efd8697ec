package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Init 向 gin 的校验引擎注册自定义规则
func Init() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 go-playground/validator")
	}
	validate = v
	if err := validate.RegisterValidation("txhash", isTxHash); err != nil {
		return err
	}
	return validate.RegisterValidation("hexdata", isHexData)
}

// isTxHash 0x 开头的 32 字节 hex
func isTxHash(fl validator.FieldLevel) bool {
	b, err := hexutil.Decode(fl.Field().String())
	return err == nil && len(b) == common.HashLength
}

// isHexData 非空、偶数长度的 hex，可带 0x 前缀
func isHexData(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	return err == nil && len(b) > 0
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var errMsgs []string
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 不能为空", field))
			case "oneof":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, param))
			case "txhash":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是 0x 开头的 32 字节 hex", field))
			case "hexdata":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 必须是偶数长度的 hex", field))
			case "max":
				errMsgs = append(errMsgs, fmt.Sprintf("%s 长度不能超过 %s", field, param))
			default:
				errMsgs = append(errMsgs, fmt.Sprintf("%s 校验失败 (%s)", field, tag))
			}
		}
		return strings.Join(errMsgs, "; ")
	}
	return "请求参数错误"
}
