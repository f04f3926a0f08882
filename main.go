package main

import "github.com/lingoboard/lingoboard/cmd"

func main() {
	cmd.Execute()
}
