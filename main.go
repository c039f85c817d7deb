package main

import "tcellatlas/cmd"

func main() {
	cmd.Execute()
}
