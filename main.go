package main

import "timebank-backend/cmd"

func main() {
	cmd.Run()
}
