package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/AmrMurad1/Pack-Store/shared"
)

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	// Ctrl-C sets the interrupt flag; the writer aborts at the next index
	// file boundary.
	var interrupted atomic.Bool
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	go func() {
		<-signals
		interrupted.Store(true)
	}()

	store := NewStore(dir, shared.Sha1)
	if _, err := store.WriteMultiPackIndex(&interrupted); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
