package main

import "github.com/mensylisir/elevate/cmd"

func main() {
	cmd.Execute()
}
