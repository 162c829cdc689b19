package main

import "readalong-backend/cmd"

func main() {
	cmd.Run()
}
