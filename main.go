package main

import "profile-ingest/cmd"

func main() {
	cmd.Execute()
}
