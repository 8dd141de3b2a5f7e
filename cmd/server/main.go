package main

import "mission_go/cmd/server/cmd"

func main() {
	cmd.Execute()
}
