// Package validation checks configuration structs and API input.
//
// Struct tags are evaluated with go-playground/validator:
//
//	type GoogleConfig struct {
//	    BucketName string `mapstructure:"bucket_name" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// Ad hoc checks collect field errors fluently:
//
//	err := validation.New().AbsoluteURL("input_file.url", url).Validate()
package validation
