package main

import "planai/cmd"

func main() {
	cmd.Execute()
}
