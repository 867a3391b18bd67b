package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maeshinshin/hostmdns"
	"github.com/maeshinshin/hostmdns/example/util"
)

var debug = flag.Bool("debug", false, "Enable debug mode")

func main() {
	flag.Parse()

	if *debug {
		hostmdns.SetDebug()
	}

	m, err := hostmdns.New()
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		panic(err)
	}
	defer m.Stop()

	ip, err := util.GetOutboundIP()
	if err != nil {
		fmt.Println("Error getting outbound IP:", err)
		os.Exit(1)
	}

	if err := m.AddRecord("example.local", 120, ip, util.LinkLocalIPv6()); err != nil {
		fmt.Println("Error adding record:", err)
		os.Exit(1)
	}

	fmt.Println("mDNS responder running. Press Ctrl+C to exit.")
	<-ctx.Done()
}
