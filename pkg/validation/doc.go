// Package validation checks Dutch phone numbers, e-mail addresses and IBANs.
// Each validator can be used directly or registered as a tag on a
// go-playground validator with RegisterValidations.
package validation
