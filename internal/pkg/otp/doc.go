// Package otp generates short numeric one-time passcodes.
//
// Codes are delivered out of band (email) and typed back by a person, so they
// are short and digits-only. Each code is derived from fresh random key
// material; nothing about the recipient or the current time feeds into it.
package otp
