package main

import "sapataria/cmd"

func main() {
	cmd.Execute()
}
