// @title           KYC Codes API
// @version         1.0
// @description     Verification code issuance and checking for phone and e-mail.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"fmt"
	"os"

	"kyccodes/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "kyccodes:", err)
		os.Exit(1)
	}
}
