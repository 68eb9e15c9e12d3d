package main

import "github.com/innowise-solutions/ms-go-payments/cmd"

func main() {
	cmd.Execute()
}
