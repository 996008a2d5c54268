package main

import "github.com/gbs-tools/gogbs/cmd"

func main() {
	cmd.Execute()
}
