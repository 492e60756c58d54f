package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test <package>")
		fmt.Println()
		fmt.Println("Available packages: bootcircuit, pagemerkle, bootloader, exectrace, continuations")
		fmt.Println()
		fmt.Println("Prefer using `go test` directly:")
		fmt.Println("  go test ./pkg/bootcircuit/ -v -timeout 5m")
		fmt.Println("  go test ./...                            # everything")
		os.Exit(1)
	}

	pkg := os.Args[1]
	fmt.Printf("To run tests for the %s package, use:\n", pkg)
	fmt.Printf("  go test ./pkg/%s/ -v -timeout 5m\n", pkg)
}
