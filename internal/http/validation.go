package httpapi

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

var (
	validatorsOnce sync.Once
	couponCodeRe   = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)
)

// registerValidators adds the shop's binding tags to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			switch domain.PaymentMethod(fl.Field().String()) {
			case domain.PaymentCOD, domain.PaymentWallet:
				return true
			}
			return false
		})
		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return domain.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("address_type", func(fl validator.FieldLevel) bool {
			switch domain.AddressType(fl.Field().String()) {
			case domain.AddressHome, domain.AddressWork, domain.AddressOther:
				return true
			}
			return false
		})
		_ = v.RegisterValidation("coupon_code", func(fl validator.FieldLevel) bool {
			return couponCodeRe.MatchString(fl.Field().String())
		})
	})
}
