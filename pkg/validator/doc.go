// Package validator provides composable validation rules that accumulate
// per-field errors instead of failing on the first problem.
//
// Each rule is a deferred check paired with the error it produces. Apply runs
// a set of rules and returns a ValidationErrors listing every failed field,
// which HTTP handlers can render directly as form feedback:
//
//	err := validator.Apply(
//		validator.Required("email", email),
//		validator.ValidEmail("email", email),
//		validator.StrongPassword("password", password, validator.DefaultPasswordStrength()),
//	)
package validator
