package main

import "github.com/example/bookingwatch/cmd"

func main() {
	cmd.Execute()
}
