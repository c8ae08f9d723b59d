// Package validation validates configuration structs using
// go-playground/validator struct tags.
//
// Field names in error messages come from the mapstructure tag, so a
// failure reads the way the option was spelled in the config bag:
//
//	type Config struct {
//	    Mode string `mapstructure:"error_mode" validate:"omitempty,oneof=opt_in always"`
//	}
//
//	if err := validation.Validate(cfg); err != nil {
//	    // err is an *errors.AppError with code INVALID_INPUT
//	}
package validation
