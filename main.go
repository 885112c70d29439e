package main

import (
	"github.com/MarcTheSpark/playcorder/cmd"
)

func main() {
	cmd.Execute()
}
