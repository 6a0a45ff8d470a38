package main

import (
	"github.com/sergev/cvdecode/adapter"
	_ "github.com/sergev/cvdecode/capture"
	_ "github.com/sergev/cvdecode/playback"
)

func main() {
	adapter.Execute()
}
