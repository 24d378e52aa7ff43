package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Prints a bcrypt hash for an API_CLIENTS entry: hash_secret <client-id> <secret>
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: hash_secret <client-id> <secret>")
		os.Exit(2)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s:%s\n", os.Args[1], h)
}
