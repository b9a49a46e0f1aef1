//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/porton/gate-relay/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-admin-code.go <admin-code>\n")
		os.Exit(1)
	}

	hash, err := util.HashAdminCode(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
