package validation

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

// Register 向 gin 默认校验引擎注册自定义标签
//   - phone: 可选 + 前缀，数字/空格/连字符，6-20 位
//   - progress: 0-100 的整数
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding 校验引擎不是 validator.Validate")
	}
	return RegisterOn(v)
}

// RegisterOn 在指定校验器上注册自定义标签
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		return err
	}
	return v.RegisterValidation("progress", validateProgress)
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateProgress(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 0 && n <= 100
}
