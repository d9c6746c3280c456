// Package clock lets expiry checks run against a controllable time source.
//
// Services take a Clocker and never call time.Now directly; tests drive a
// Manual clock across code expiry boundaries.
package clock
