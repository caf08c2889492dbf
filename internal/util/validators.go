package util

import (
	"donation-backend/internal/model"

	"github.com/go-playground/validator/v10"
)

// RegisterValidators 注册自定义枚举校验器
func RegisterValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"donation_status": ValidateDonationStatus,
		"donation_type":   ValidateDonationType,
		"payment_method":  ValidatePaymentMethod,
		"contact_subject": ValidateContactSubject,
		"user_type":       ValidateUserType,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func ValidateDonationStatus(fl validator.FieldLevel) bool {
	return model.DonationStatus(fl.Field().String()).IsValid()
}

func ValidateDonationType(fl validator.FieldLevel) bool {
	return model.DonationType(fl.Field().String()).IsValid()
}

// ValidatePaymentMethod 空值视为未指定
func ValidatePaymentMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	return method == "" || model.PaymentMethod(method).IsValid()
}

func ValidateContactSubject(fl validator.FieldLevel) bool {
	return model.ContactSubject(fl.Field().String()).IsValid()
}

func ValidateUserType(fl validator.FieldLevel) bool {
	userType := fl.Field().String()
	return userType == "" || model.UserType(userType).IsValid()
}
