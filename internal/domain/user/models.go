package user

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// User is the profile document keyed by the identity provider's account id.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Name                string    `json:"name"`
	Address1            string    `json:"address1"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	PostalCode          string    `json:"postalCode"`
	DateOfBirth         string    `json:"dateOfBirth"`
	SSN                 string    `json:"-"`
	PaymentsCustomerID  string    `json:"paymentsCustomerId"`
	PaymentsCustomerURL string    `json:"paymentsCustomerUrl"`
	CreatedAt           time.Time `json:"createdAt"`
}

type CreateUserParams struct {
	ID                  string
	Email               string
	FirstName           string
	LastName            string
	Address1            string
	City                string
	State               string
	PostalCode          string
	DateOfBirth         string
	SSN                 string
	PaymentsCustomerID  string
	PaymentsCustomerURL string
}

// SignUpParams is the sign-up form.
type SignUpParams struct {
	FirstName   string `json:"firstName" validate:"required,max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	Address1    string `json:"address1" validate:"required,max=50"`
	City        string `json:"city" validate:"required,max=50"`
	State       string `json:"state" validate:"required,len=2,alpha"`
	PostalCode  string `json:"postalCode" validate:"required,numeric,min=3,max=6"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02,past"`
	SSN         string `json:"ssn" validate:"required,numeric,min=4,max=9"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type SignInParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "past" rejects dates of birth in the future.
	_ = v.RegisterValidation("past", func(fl validator.FieldLevel) bool {
		d, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil && d.Before(time.Now())
	})
	return v
}

// Validate normalises the form and checks it.
func (p *SignUpParams) Validate() error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	return validate.Struct(p)
}

func (p *SignInParams) Validate() error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return validate.Struct(p)
}

// FullName joins first and last name.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// InvalidFields lists the JSON names of the fields that failed validation.
func InvalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields = append(fields, strings.ToLower(name[:1])+name[1:])
	}
	return fields
}
