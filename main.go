package main

import "github.com/oit-infosec/awareness-compliance/cmd"

func main() {
	cmd.Execute()
}
