package main

import "github.com/lborres/abaccess/internal/cli"

func main() {
	cli.Execute()
}
