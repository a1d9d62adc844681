package main

import "github.com/sarchlab/chiptop/cmd"

func main() {
	cmd.Execute()
}
