package main

import (
	"github.com/foomo/zkdump/cmd"
)

func main() {
	cmd.Execute()
}
