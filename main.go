package main

import (
	"os"

	"github.com/jobboard/verification/internal/cli"
)

// @title           Email Verification API
// @version         1.0
// @description     Issues, resends, verifies and revokes one-time email verification codes.
// @termsOfService  https://jobboard.example/terms
// @contact.name    Contact Support
// @contact.url     https://jobboard.example/contact
// @contact.email   support@jobboard.example
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @server          https://localhost:8080
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
