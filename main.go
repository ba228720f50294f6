/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/snailrace/cmd"

func main() {
	cmd.Execute()
}
