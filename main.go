package main

import "github.com/arcrtr/srv6d/cmd"

func main() {
	cmd.Execute()
}
