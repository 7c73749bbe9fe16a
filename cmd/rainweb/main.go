package main

import "github.com/rain-app/reservations-web/cmd"

func main() {
	cmd.Execute()
}
