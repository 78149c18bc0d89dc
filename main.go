package main

import "github.com/Tiliavir/fichajes/cmd"

func main() {
	cmd.Execute()
}
