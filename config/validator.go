package config

// Validator is implemented by every configuration section
type Validator interface {
	Validate() error
}

// ValidateAll validates sections in order and stops at the first error
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
