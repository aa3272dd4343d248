// Command hashpw prints a bcrypt hash for DASHBOARD_PASS_HASH.
//
//	hashpw 's3cret'
package main

import (
	"fmt"
	"os"

	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}
	hash, err := auth.BcryptHash(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
