// Command emailauth-server runs a small HTTP server protected by emailauth.
//
// Accounts live in memory. Redis backs the login throttle and the
// registration reservation; without --redis-addr an embedded miniredis is
// started. Reset passwords are printed to stdout in place of an email.
//
// Run:
//
//	go run ./cmd/emailauth-server --cookie-insecure
//
// Then:
//
//	curl -i -c jar.txt -X POST 'localhost:8000/auth/register?type=json' \
//	  -d email=alice@example.com -d password=correct-horse
//	curl -i -b jar.txt localhost:8000/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
