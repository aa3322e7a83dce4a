package main

import "github.com/AnferLagbu/Chameleon/cmd"

func main() {
	cmd.Execute()
}
