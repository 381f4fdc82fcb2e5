package main

import "festival-cleanup-backend/cmd"

func main() {
	cmd.Run()
}
