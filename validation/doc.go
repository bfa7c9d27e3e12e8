// Package validation checks request input and reports violations as
// VALIDATION_ERROR application errors with per-field details.
//
// # Struct Tag Validation
//
//	type SignUpRequest struct {
//	    Email    string `json:"email" validate:"required,email,max=255"`
//	    Password string `json:"password" validate:"required,min=8,max=128"`
//	}
//	err := validation.Validate(req)
//
// Bounds that come from configuration use the Fields collector:
//
//	err := validation.New().Length("password", pw, cfg.MinLength, cfg.MaxLength).Err()
package validation
