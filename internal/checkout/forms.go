package checkout

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

const (
	termsMessage        = "You must agree to the terms and conditions"
	codPickupMessage    = "Cash on delivery is only available for delivery orders"
	invalidMethodSuffix = " is not supported"
)

// Address is the contact and delivery block of a checkout.
type Address struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"notes"`
}

type DeliveryForm struct {
	Method  enums.DeliveryMethod `json:"deliveryMethod"`
	Address Address              `json:"address"`
}

type PaymentForm struct {
	Method       enums.PaymentMethod `json:"paymentMethod"`
	AgreeToTerms bool                `json:"agreeToTerms"`
}

// Draft is the order being assembled across the checkout stages.
type Draft struct {
	Delivery DeliveryForm `json:"delivery"`
	Payment  PaymentForm  `json:"payment"`
}

// DefaultDraft is what a new checkout starts with.
func DefaultDraft(city string) Draft {
	if strings.TrimSpace(city) == "" {
		city = "Nairobi"
	}
	return Draft{
		Delivery: DeliveryForm{
			Method:  enums.DeliveryMethodDelivery,
			Address: Address{City: city},
		},
		Payment: PaymentForm{Method: enums.PaymentMethodWhatsApp},
	}
}

func (a Address) trimmed() Address {
	return Address{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Phone:      strings.TrimSpace(a.Phone),
		Email:      strings.TrimSpace(a.Email),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Notes:      strings.TrimSpace(a.Notes),
	}
}

// fieldOrder fixes the order missing fields are reported in.
var fieldOrder = []string{"firstName", "lastName", "phone", "email", "street", "city"}

var missingMessages = map[string]string{
	"firstName": "First name is required",
	"lastName":  "Last name is required",
	"phone":     "Phone number is required",
	"email":     "Email is required",
	"street":    "Street address is required",
	"city":      "City is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterStructValidation(deliveryAddressRules, DeliveryForm{})
	return v
}

// deliveryAddressRules requires a street and city only when the order is delivered.
func deliveryAddressRules(sl validator.StructLevel) {
	form := sl.Current().Interface().(DeliveryForm)
	if form.Method != enums.DeliveryMethodDelivery {
		return
	}
	if form.Address.Street == "" {
		sl.ReportError(form.Address.Street, "street", "Street", "required", "")
	}
	if form.Address.City == "" {
		sl.ReportError(form.Address.City, "city", "City", "required", "")
	}
}

// ValidateDelivery checks the delivery stage. The error message lists every
// missing field joined by ", " in a fixed order; details map each field to
// its message.
func ValidateDelivery(form DeliveryForm) error {
	if !form.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Delivery method"+invalidMethodSuffix).
			WithDetails(map[string]string{"deliveryMethod": "must be delivery or pickup"})
	}
	form.Address = form.Address.trimmed()

	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}

	missing := map[string]bool{}
	for _, fe := range fieldErrs {
		missing[fe.Field()] = true
	}
	fields := make([]string, 0, len(missing))
	for f := range missing {
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool { return rank(fields[i]) < rank(fields[j]) })

	messages := make([]string, 0, len(fields))
	details := make(map[string]string, len(fields))
	for _, f := range fields {
		msg, ok := missingMessages[f]
		if !ok {
			msg = f + " is invalid"
		}
		messages = append(messages, msg)
		details[f] = msg
	}
	return pkgerrors.New(pkgerrors.CodeValidation, strings.Join(messages, ", ")).WithDetails(details)
}

func rank(field string) int {
	for i, f := range fieldOrder {
		if f == field {
			return i
		}
	}
	return len(fieldOrder)
}

// ValidatePayment checks the payment stage against the chosen delivery method.
func ValidatePayment(form PaymentForm, delivery enums.DeliveryMethod) error {
	if !form.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Payment method"+invalidMethodSuffix).
			WithDetails(map[string]string{"paymentMethod": "must be whatsapp, mpesa or cod"})
	}
	if !form.AgreeToTerms {
		return pkgerrors.New(pkgerrors.CodeValidation, termsMessage).
			WithDetails(map[string]string{"agreeToTerms": termsMessage})
	}
	if !form.Method.AllowedWith(delivery) {
		return pkgerrors.New(pkgerrors.CodeValidation, codPickupMessage).
			WithDetails(map[string]string{"paymentMethod": codPickupMessage})
	}
	return nil
}
