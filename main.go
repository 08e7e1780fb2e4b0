package main

import "recall/engine/cmd"

func main() {
	cmd.Execute()
}
