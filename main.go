package main

import (
	"os"

	"github.com/kamilpajak/qaharness/cmd/qaharness"
)

func main() {
	os.Exit(qaharness.Execute())
}
