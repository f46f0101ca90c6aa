package main

import "github.com/OpenTraceLab/OpenTraceConn/cmd/otc/cmd"

func main() {
	cmd.Execute()
}
